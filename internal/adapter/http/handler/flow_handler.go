package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/dto"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/wizard"
)

// FlowService defines the behavior needed by FlowHandler.
type FlowService interface {
	StartTopUp(ctx context.Context, session domain.Session) (string, *wizard.TopUp, error)
	TopUp(session domain.Session, id string) (*wizard.TopUp, error)
	SubmitTopUp(ctx context.Context, session domain.Session, id string) (wizard.TopUpState, error)
	StartBillPayment(ctx context.Context, session domain.Session) (string, *wizard.BillPayment, error)
	BillPayment(session domain.Session, id string) (*wizard.BillPayment, error)
	RefreshBillPayment(ctx context.Context, session domain.Session, id string) (*wizard.BillPayment, error)
	SubmitBillPayment(ctx context.Context, session domain.Session, id string) (wizard.BillState, error)
	Discard(session domain.Session, id string)
}

// FlowHandler exposes the top-up and bill payment wizards. Every action
// answers with the resulting flow state.
type FlowHandler struct {
	flowUC FlowService
}

// NewFlowHandler creates a new FlowHandler.
func NewFlowHandler(flowUC FlowService) *FlowHandler {
	return &FlowHandler{flowUC: flowUC}
}

// flowErrorStatus keeps conflicts as 409 and reports guard failures as 422.
func flowErrorStatus(err error) int {
	switch status := mapDomainError(err); status {
	case http.StatusConflict, http.StatusInternalServerError:
		return status
	default:
		return http.StatusUnprocessableEntity
	}
}

// StartTopUp opens a top-up flow.
func (h *FlowHandler) StartTopUp(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	id, flow, err := h.flowUC.StartTopUp(r.Context(), session)
	if err != nil {
		writeDomainError(w, r, "failed to start top-up", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TopUpFlowFromState(id, flow.State()))
}

// GetTopUp returns the state of a top-up flow.
func (h *FlowHandler) GetTopUp(w http.ResponseWriter, r *http.Request) {
	h.topUpAction(w, r, nil)
}

// ChooseTransfer shows the account's CVU and alias.
func (h *FlowHandler) ChooseTransfer(w http.ResponseWriter, r *http.Request) {
	h.topUpAction(w, r, func(f *wizard.TopUp) error { return f.ChooseTransfer() })
}

// ChooseCardMethod moves to card selection.
func (h *FlowHandler) ChooseCardMethod(w http.ResponseWriter, r *http.Request) {
	h.topUpAction(w, r, func(f *wizard.TopUp) error { return f.ChooseCard() })
}

// SelectCard picks the card to charge.
func (h *FlowHandler) SelectCard(w http.ResponseWriter, r *http.Request) {
	var req dto.SelectCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.topUpAction(w, r, func(f *wizard.TopUp) error { return f.SelectCard(req.CardID) })
}

// EnterAmount sets the amount to load.
func (h *FlowHandler) EnterAmount(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.topUpAction(w, r, func(f *wizard.TopUp) error { return f.EnterAmount(req.Amount) })
}

// RetryTopUp returns a failed top-up to review.
func (h *FlowHandler) RetryTopUp(w http.ResponseWriter, r *http.Request) {
	h.topUpAction(w, r, func(f *wizard.TopUp) error { return f.Retry() })
}

// CancelTopUp returns a top-up to the options step.
func (h *FlowHandler) CancelTopUp(w http.ResponseWriter, r *http.Request) {
	h.topUpAction(w, r, func(f *wizard.TopUp) error { return f.Cancel() })
}

// SubmitTopUp loads the funds. A backend failure is reported through the
// flow's error step, not through the status code.
func (h *FlowHandler) SubmitTopUp(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	state, err := h.flowUC.SubmitTopUp(r.Context(), session, id)
	if err != nil {
		if mapDomainError(err) == http.StatusNotFound {
			writeDomainError(w, r, "top-up flow not found", err)
			return
		}
		writeJSON(w, flowErrorStatus(err), dto.FlowErrorResponse{
			Error: err.Error(),
			Flow:  dto.TopUpFlowFromState(id, state),
		})
		return
	}

	writeJSON(w, http.StatusOK, dto.TopUpFlowFromState(id, state))
}

func (h *FlowHandler) topUpAction(w http.ResponseWriter, r *http.Request, act func(*wizard.TopUp) error) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	flow, err := h.flowUC.TopUp(session, id)
	if err != nil {
		writeDomainError(w, r, "top-up flow not found", err)
		return
	}

	if act != nil {
		if err := act(flow); err != nil {
			writeJSON(w, flowErrorStatus(err), dto.FlowErrorResponse{
				Error: err.Error(),
				Flow:  dto.TopUpFlowFromState(id, flow.State()),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, dto.TopUpFlowFromState(id, flow.State()))
}

// StartBillPayment opens a bill payment flow.
func (h *FlowHandler) StartBillPayment(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	id, flow, err := h.flowUC.StartBillPayment(r.Context(), session)
	if err != nil {
		writeDomainError(w, r, "failed to start bill payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BillFlowFromState(id, flow.State()))
}

// GetBillPayment returns the state of a bill payment flow.
func (h *FlowHandler) GetBillPayment(w http.ResponseWriter, r *http.Request) {
	h.billAction(w, r, nil)
}

// SelectService picks the service to pay.
func (h *FlowHandler) SelectService(w http.ResponseWriter, r *http.Request) {
	var req dto.SelectServiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.billAction(w, r, func(f *wizard.BillPayment) error { return f.SelectService(r.Context(), req.ServiceID) })
}

// EnterReference sets the 11-digit invoice reference.
func (h *FlowHandler) EnterReference(w http.ResponseWriter, r *http.Request) {
	var req dto.ReferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.billAction(w, r, func(f *wizard.BillPayment) error { return f.EnterReference(req.Reference) })
}

// ChooseMethod picks the account balance or a card. The flow's balance is
// reloaded first so funds loaded since the flow started count.
func (h *FlowHandler) ChooseMethod(w http.ResponseWriter, r *http.Request) {
	var req dto.MethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.runBillAction(w, r, h.refreshedBillPayment, func(f *wizard.BillPayment) error { return f.ChooseMethod(req.Method, req.CardID) })
}

// RetryBillPayment returns a failed payment to method selection.
func (h *FlowHandler) RetryBillPayment(w http.ResponseWriter, r *http.Request) {
	h.billAction(w, r, func(f *wizard.BillPayment) error { return f.Retry() })
}

// CancelBillPayment returns a bill payment to service selection.
func (h *FlowHandler) CancelBillPayment(w http.ResponseWriter, r *http.Request) {
	h.billAction(w, r, func(f *wizard.BillPayment) error { return f.Cancel() })
}

// SubmitBillPayment pays the invoice.
func (h *FlowHandler) SubmitBillPayment(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	state, err := h.flowUC.SubmitBillPayment(r.Context(), session, id)
	if err != nil {
		if mapDomainError(err) == http.StatusNotFound {
			writeDomainError(w, r, "bill payment flow not found", err)
			return
		}
		writeJSON(w, flowErrorStatus(err), dto.FlowErrorResponse{
			Error: err.Error(),
			Flow:  dto.BillFlowFromState(id, state),
		})
		return
	}

	writeJSON(w, http.StatusOK, dto.BillFlowFromState(id, state))
}

type billLookup func(r *http.Request, session domain.Session, id string) (*wizard.BillPayment, error)

func (h *FlowHandler) billAction(w http.ResponseWriter, r *http.Request, act func(*wizard.BillPayment) error) {
	h.runBillAction(w, r, h.billPayment, act)
}

func (h *FlowHandler) billPayment(_ *http.Request, session domain.Session, id string) (*wizard.BillPayment, error) {
	return h.flowUC.BillPayment(session, id)
}

func (h *FlowHandler) refreshedBillPayment(r *http.Request, session domain.Session, id string) (*wizard.BillPayment, error) {
	return h.flowUC.RefreshBillPayment(r.Context(), session, id)
}

func (h *FlowHandler) runBillAction(w http.ResponseWriter, r *http.Request, lookup billLookup, act func(*wizard.BillPayment) error) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	flow, err := lookup(r, session, id)
	if err != nil {
		writeDomainError(w, r, "bill payment flow not found", err)
		return
	}

	if act != nil {
		if err := act(flow); err != nil {
			writeJSON(w, flowErrorStatus(err), dto.FlowErrorResponse{
				Error: err.Error(),
				Flow:  dto.BillFlowFromState(id, flow.State()),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, dto.BillFlowFromState(id, flow.State()))
}

// Discard drops a flow of either kind.
func (h *FlowHandler) Discard(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	h.flowUC.Discard(session, chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
