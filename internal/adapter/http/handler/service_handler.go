package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/dto"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
)

// CatalogService defines the behavior needed by ServiceHandler.
type CatalogService interface {
	ListServices(ctx context.Context, query string) ([]*domain.BillService, error)
	GetService(ctx context.Context, id string) (*domain.BillService, error)
}

// ServiceHandler serves the payable services catalog.
type ServiceHandler struct {
	serviceUC CatalogService
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(serviceUC CatalogService) *ServiceHandler {
	return &ServiceHandler{serviceUC: serviceUC}
}

// List searches services by name.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.serviceUC.ListServices(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, r, "failed to list services", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ServicesFromDomain(services))
}

// Get returns one service.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	service, err := h.serviceUC.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get service", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ServiceFromDomain(service))
}
