package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
)

const servicesCacheKey = "services:catalog"

// ServiceUseCase serves the catalog of payable services.
type ServiceUseCase struct {
	serviceRepo ServiceRepository
	cache       Cache
	metrics     *metrics.Metrics
	ttl         time.Duration
}

// NewServiceUseCase creates a new ServiceUseCase. cache may be nil.
func NewServiceUseCase(serviceRepo ServiceRepository, cache Cache, metrics *metrics.Metrics, ttl time.Duration) *ServiceUseCase {
	if ttl <= 0 {
		ttl = DefaultServicesCacheTTL
	}
	return &ServiceUseCase{
		serviceRepo: serviceRepo,
		cache:       cache,
		metrics:     metrics,
		ttl:         ttl,
	}
}

// ListServices returns the catalog, optionally narrowed to names that
// contain query case-insensitively.
func (uc *ServiceUseCase) ListServices(ctx context.Context, query string) ([]*domain.BillService, error) {
	all, err := uc.catalog(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return all, nil
	}

	out := make([]*domain.BillService, 0, len(all))
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			out = append(out, s)
		}
	}
	return out, nil
}

// GetService returns one catalog entry.
func (uc *ServiceUseCase) GetService(ctx context.Context, id string) (*domain.BillService, error) {
	all, err := uc.catalog(ctx)
	if err != nil {
		return nil, err
	}

	for _, s := range all {
		if s.ID == id {
			return s, nil
		}
	}

	// The cached catalog may predate the service.
	return uc.serviceRepo.GetByID(ctx, id)
}

func (uc *ServiceUseCase) catalog(ctx context.Context) ([]*domain.BillService, error) {
	if uc.cache != nil {
		data, err := uc.cache.Get(ctx, servicesCacheKey)
		switch {
		case err == nil:
			var services []*domain.BillService
			if err := json.Unmarshal(data, &services); err == nil {
				uc.countCache("hit")
				return services, nil
			}
			zerolog.Ctx(ctx).Warn().Msg("discarding corrupt services cache entry")
		case !errors.Is(err, ErrCacheMiss):
			zerolog.Ctx(ctx).Warn().Err(err).Msg("services cache read failed")
		}
		uc.countCache("miss")
	}

	services, err := uc.serviceRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(services); err == nil {
			if err := uc.cache.Set(ctx, servicesCacheKey, data, uc.ttl); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("services cache write failed")
			}
		}
	}

	return services, nil
}

func (uc *ServiceUseCase) countCache(result string) {
	if uc.metrics != nil {
		uc.metrics.CacheRequests.WithLabelValues("services", result).Inc()
	}
}
