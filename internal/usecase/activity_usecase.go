package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/digitalmoneyhouse/dmh/internal/activity"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
)

const activityCachePrefix = "activity:"

// ActivityConfig tunes the activity view.
type ActivityConfig struct {
	Location *time.Location
	PageSize int
	CacheTTL time.Duration
}

// ActivityUseCase loads a user's activity once and answers filtered,
// paginated queries over it.
type ActivityUseCase struct {
	accounts  *AccountUseCase
	entryRepo EntryRepository
	cache     Cache
	metrics   *metrics.Metrics
	cfg       ActivityConfig
	now       func() time.Time
}

// NewActivityUseCase creates a new ActivityUseCase. cache may be nil.
func NewActivityUseCase(
	accounts *AccountUseCase,
	entryRepo EntryRepository,
	cache Cache,
	metrics *metrics.Metrics,
	cfg ActivityConfig,
) *ActivityUseCase {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = activity.DefaultPageSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultActivityCacheTTL
	}

	return &ActivityUseCase{
		accounts:  accounts,
		entryRepo: entryRepo,
		cache:     cache,
		metrics:   metrics,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Now returns the current instant in the configured time zone. Presets
// resolve their day boundaries against it.
func (uc *ActivityUseCase) Now() time.Time {
	return uc.now().In(uc.cfg.Location)
}

// Load fetches the account and every ledger entry of the session user.
// It creates the account on first access. Results are cached per owner.
func (uc *ActivityUseCase) Load(ctx context.Context, session domain.Session) (*activity.Snapshot, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}

	if snap, ok := uc.cached(ctx, session.UserID); ok {
		uc.count("cache")
		snap.Session = session
		return snap, nil
	}

	account, err := uc.accounts.GetOrCreate(ctx, session)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListByOwner(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	snap := &activity.Snapshot{
		LoadedAt: uc.now().UTC(),
		Session:  session,
		Account:  account,
		Entries:  entries,
	}

	uc.count("database")
	if uc.metrics != nil {
		uc.metrics.ActivityEntries.Observe(float64(len(entries)))
	}
	uc.store(ctx, session.UserID, snap)

	return snap, nil
}

// SearchResult is one page of activity plus the account it belongs to.
type SearchResult struct {
	Account *domain.Account
	Filters activity.FilterState
	Page    activity.Page
}

// Search applies filters to the session user's activity. A page beyond
// the filtered result falls back to page 1.
func (uc *ActivityUseCase) Search(ctx context.Context, session domain.Session, filters activity.FilterState) (*SearchResult, error) {
	snap, err := uc.Load(ctx, session)
	if err != nil {
		return nil, err
	}

	q := activity.NewQuery(snap, activity.WithPageSize(uc.cfg.PageSize), activity.WithClock(uc.Now))
	q.SetFilters(filters)
	q.SetPage(filters.Page)

	page := q.Result()

	return &SearchResult{
		Account: snap.Account,
		Filters: q.Filters(),
		Page:    page,
	}, nil
}

// GetEntry returns one of the session user's entries.
func (uc *ActivityUseCase) GetEntry(ctx context.Context, session domain.Session, id string) (*domain.LedgerEntry, error) {
	if !session.Valid() {
		return nil, domain.ErrUnauthorized
	}
	return uc.entryRepo.GetByID(ctx, session.UserID, id)
}

// Invalidate drops the cached snapshot of ownerID.
func (uc *ActivityUseCase) Invalidate(ctx context.Context, ownerID string) {
	invalidateActivity(ctx, uc.cache, ownerID)
}

func (uc *ActivityUseCase) cached(ctx context.Context, ownerID string) (*activity.Snapshot, bool) {
	if uc.cache == nil {
		return nil, false
	}

	data, err := uc.cache.Get(ctx, activityCachePrefix+ownerID)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("activity cache read failed")
		}
		return nil, false
	}

	var snap activity.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("discarding corrupt activity cache entry")
		return nil, false
	}

	return &snap, true
}

func (uc *ActivityUseCase) store(ctx context.Context, ownerID string, snap *activity.Snapshot) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("activity snapshot not cacheable")
		return
	}

	if err := uc.cache.Set(ctx, activityCachePrefix+ownerID, data, uc.cfg.CacheTTL); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("activity cache write failed")
	}
}

func (uc *ActivityUseCase) count(source string) {
	if uc.metrics != nil {
		uc.metrics.ActivityQueries.WithLabelValues(source).Inc()
	}
}

// invalidateActivity is called after any write that changes a balance or
// adds entries for ownerID.
func invalidateActivity(ctx context.Context, cache Cache, ownerID string) {
	if cache == nil || ownerID == "" {
		return
	}
	if err := cache.Delete(ctx, activityCachePrefix+ownerID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("owner_id", ownerID).Msg("activity cache invalidation failed")
	}
}
