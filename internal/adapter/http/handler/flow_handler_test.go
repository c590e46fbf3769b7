package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/dto"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/wizard"
)

type loaderFunc func(ctx context.Context, req domain.LoadFundsRequest) (decimal.Decimal, error)

func (f loaderFunc) LoadFunds(ctx context.Context, req domain.LoadFundsRequest) (decimal.Decimal, error) {
	return f(ctx, req)
}

type payerFunc func(ctx context.Context, req domain.PayBillRequest) (*domain.Payment, error)

func (f payerFunc) PayBill(ctx context.Context, req domain.PayBillRequest) (*domain.Payment, error) {
	return f(ctx, req)
}

type servicesFunc func(ctx context.Context, id string) (*domain.BillService, error)

func (f servicesFunc) GetService(ctx context.Context, id string) (*domain.BillService, error) {
	return f(ctx, id)
}

// flowServiceStub keeps one flow of each kind under the id "flow-1".
type flowServiceStub struct {
	topUp     *wizard.TopUp
	bill      *wizard.BillPayment
	fresh     *domain.Account
	refreshes int
	discarded string
}

func (s *flowServiceStub) StartTopUp(ctx context.Context, session domain.Session) (string, *wizard.TopUp, error) {
	return "flow-1", s.topUp, nil
}

func (s *flowServiceStub) TopUp(session domain.Session, id string) (*wizard.TopUp, error) {
	if id != "flow-1" || session.UserID != s.topUp.Session().UserID {
		return nil, domain.ErrFlowNotFound
	}
	return s.topUp, nil
}

func (s *flowServiceStub) SubmitTopUp(ctx context.Context, session domain.Session, id string) (wizard.TopUpState, error) {
	w, err := s.TopUp(session, id)
	if err != nil {
		return wizard.TopUpState{}, err
	}
	err = w.Submit(ctx)
	return w.State(), err
}

func (s *flowServiceStub) StartBillPayment(ctx context.Context, session domain.Session) (string, *wizard.BillPayment, error) {
	return "flow-1", s.bill, nil
}

func (s *flowServiceStub) BillPayment(session domain.Session, id string) (*wizard.BillPayment, error) {
	if id != "flow-1" {
		return nil, domain.ErrFlowNotFound
	}
	return s.bill, nil
}

func (s *flowServiceStub) RefreshBillPayment(ctx context.Context, session domain.Session, id string) (*wizard.BillPayment, error) {
	w, err := s.BillPayment(session, id)
	if err != nil {
		return nil, err
	}
	s.refreshes++
	w.RefreshAccount(s.fresh)
	return w, nil
}

func (s *flowServiceStub) SubmitBillPayment(ctx context.Context, session domain.Session, id string) (wizard.BillState, error) {
	w, err := s.BillPayment(session, id)
	if err != nil {
		return wizard.BillState{}, err
	}
	err = w.Submit(ctx)
	return w.State(), err
}

func (s *flowServiceStub) Discard(session domain.Session, id string) {
	s.discarded = id
}

var (
	flowAccount = &domain.Account{ID: "acc-1", OwnerID: "user-1", CVU: "0000003100000000000001", Alias: "sol.rio.mate", Balance: decimal.NewFromInt(1000)}
	flowCards   = []*domain.Card{
		{ID: "card-1", OwnerID: "user-1", LastFour: "4242"},
		{ID: "card-2", OwnerID: "user-1", LastFour: "0000"},
	}
)

func newFlowStub(loadErr error) *flowServiceStub {
	loader := loaderFunc(func(ctx context.Context, req domain.LoadFundsRequest) (decimal.Decimal, error) {
		if loadErr != nil {
			return decimal.Zero, loadErr
		}
		return flowAccount.Balance.Add(req.Amount), nil
	})
	payer := payerFunc(func(ctx context.Context, req domain.PayBillRequest) (*domain.Payment, error) {
		return &domain.Payment{ID: "pay-1", ServiceID: req.ServiceID, Reference: req.Reference, Method: req.Method, Amount: req.Amount}, nil
	})
	services := servicesFunc(func(ctx context.Context, id string) (*domain.BillService, error) {
		if id != "edenor" {
			return nil, domain.ErrServiceNotFound
		}
		return &domain.BillService{ID: "edenor", Name: "Edenor", InvoiceValue: decimal.NewFromInt(400)}, nil
	})

	return &flowServiceStub{
		topUp: wizard.NewTopUp(testSession, flowAccount, flowCards, loader,
			wizard.WithMaxAmount(decimal.NewFromInt(1_500_000)),
			wizard.WithFailurePredicate(wizard.CardSuffixFailure("0000")),
		),
		bill: wizard.NewBillPayment(testSession, flowAccount, flowCards, services, payer),
	}
}

func idParam() map[string]string { return map[string]string{"id": "flow-1"} }

func TestFlowHandler_TopUpHappyPath(t *testing.T) {
	h := NewFlowHandler(newFlowStub(nil))

	rec := httptest.NewRecorder()
	h.StartTopUp(rec, newRequest(http.MethodPost, "/api/v1/flows/topups", "", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	steps := []struct {
		call func(w http.ResponseWriter, r *http.Request)
		body string
		want string
	}{
		{h.ChooseCardMethod, "", "card_select"},
		{h.SelectCard, `{"card_id":"card-1"}`, "card_amount"},
		{h.EnterAmount, `{"amount":"250"}`, "card_review"},
		{h.SubmitTopUp, "", "success"},
	}

	var resp dto.TopUpFlowResponse
	for _, step := range steps {
		rec := httptest.NewRecorder()
		step.call(rec, newRequest(http.MethodPost, "/", step.body, idParam()))
		if rec.Code != http.StatusOK {
			t.Fatalf("step %s: expected 200, got %d: %s", step.want, rec.Code, rec.Body.String())
		}
		resp = dto.TopUpFlowResponse{}
		decodeBody(t, rec, &resp)
		if resp.Step != step.want {
			t.Fatalf("expected step %s, got %s", step.want, resp.Step)
		}
	}

	if resp.NewBalance == nil || !resp.NewBalance.Equal(decimal.NewFromInt(1250)) {
		t.Fatalf("expected new balance 1250, got %v", resp.NewBalance)
	}
}

func TestFlowHandler_TopUpGuards(t *testing.T) {
	h := NewFlowHandler(newFlowStub(nil))

	rec := httptest.NewRecorder()
	h.SubmitTopUp(rec, newRequest(http.MethodPost, "/", "", idParam()))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected submit from options to conflict, got %d", rec.Code)
	}

	h.ChooseCardMethod(httptest.NewRecorder(), newRequest(http.MethodPost, "/", "", idParam()))

	rec = httptest.NewRecorder()
	h.SelectCard(rec, newRequest(http.MethodPost, "/", `{"card_id":"someone-else"}`, idParam()))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected foreign card to be rejected with 422, got %d", rec.Code)
	}

	var failed dto.FlowErrorResponse
	decodeBody(t, rec, &failed)
	if failed.Error == "" || failed.Flow == nil {
		t.Fatalf("expected error and flow state, got %+v", failed)
	}

	h.SelectCard(httptest.NewRecorder(), newRequest(http.MethodPost, "/", `{"card_id":"card-1"}`, idParam()))

	rec = httptest.NewRecorder()
	h.EnterAmount(rec, newRequest(http.MethodPost, "/", `{"amount":"1500001"}`, idParam()))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected amount above limit to be rejected, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.GetTopUp(rec, newRequest(http.MethodGet, "/", "", map[string]string{"id": "nope"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected unknown flow to be 404, got %d", rec.Code)
	}
}

func TestFlowHandler_TopUpFailureAndRetry(t *testing.T) {
	h := NewFlowHandler(newFlowStub(errors.New("processor unavailable")))

	for _, step := range []struct {
		call func(w http.ResponseWriter, r *http.Request)
		body string
	}{
		{h.ChooseCardMethod, ""},
		{h.SelectCard, `{"card_id":"card-1"}`},
		{h.EnterAmount, `{"amount":"100"}`},
	} {
		step.call(httptest.NewRecorder(), newRequest(http.MethodPost, "/", step.body, idParam()))
	}

	rec := httptest.NewRecorder()
	h.SubmitTopUp(rec, newRequest(http.MethodPost, "/", "", idParam()))
	if rec.Code != http.StatusOK {
		t.Fatalf("backend failures are reported in the flow, got status %d", rec.Code)
	}

	var resp dto.TopUpFlowResponse
	decodeBody(t, rec, &resp)
	if resp.Step != "error" || resp.LastError != wizard.TopUpFailedMessage {
		t.Fatalf("expected error step with fixed message, got %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.RetryTopUp(rec, newRequest(http.MethodPost, "/", "", idParam()))
	resp = dto.TopUpFlowResponse{}
	decodeBody(t, rec, &resp)
	if resp.Step != "card_review" || resp.Card == nil || resp.Card.ID != "card-1" {
		t.Fatalf("expected retry to keep the selection, got %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.CancelTopUp(rec, newRequest(http.MethodPost, "/", "", idParam()))
	resp = dto.TopUpFlowResponse{}
	decodeBody(t, rec, &resp)
	if resp.Step != "options" {
		t.Fatalf("expected cancel to return to options, got %s", resp.Step)
	}
}

func TestFlowHandler_TransferOptionShowsAccount(t *testing.T) {
	h := NewFlowHandler(newFlowStub(nil))

	rec := httptest.NewRecorder()
	h.ChooseTransfer(rec, newRequest(http.MethodPost, "/", "", idParam()))

	var resp dto.TopUpFlowResponse
	decodeBody(t, rec, &resp)
	if resp.Step != "transfer" || resp.CVU != flowAccount.CVU || resp.Alias != flowAccount.Alias {
		t.Fatalf("expected account details, got %+v", resp)
	}
}

func TestFlowHandler_BillPayment(t *testing.T) {
	h := NewFlowHandler(newFlowStub(nil))

	rec := httptest.NewRecorder()
	h.StartBillPayment(rec, newRequest(http.MethodPost, "/api/v1/flows/bill-payments", "", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.SelectService(rec, newRequest(http.MethodPost, "/", `{"service_id":"gas"}`, idParam()))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected unknown service to be rejected, got %d", rec.Code)
	}

	steps := []struct {
		call func(w http.ResponseWriter, r *http.Request)
		body string
		want string
	}{
		{h.SelectService, `{"service_id":"edenor"}`, "reference"},
		{h.EnterReference, `{"reference":"12345678901"}`, "method_select"},
		{h.ChooseMethod, `{"method":"balance"}`, "method_select"},
		{h.SubmitBillPayment, "", "success"},
	}

	var resp dto.BillFlowResponse
	for _, step := range steps {
		rec := httptest.NewRecorder()
		step.call(rec, newRequest(http.MethodPost, "/", step.body, idParam()))
		if rec.Code != http.StatusOK {
			t.Fatalf("step %s: expected 200, got %d: %s", step.want, rec.Code, rec.Body.String())
		}
		resp = dto.BillFlowResponse{}
		decodeBody(t, rec, &resp)
		if resp.Step != step.want {
			t.Fatalf("expected step %s, got %s", step.want, resp.Step)
		}
	}

	if resp.Payment == nil || resp.Payment.ID != "pay-1" || resp.Payment.Reference != "12345678901" {
		t.Fatalf("unexpected payment %+v", resp.Payment)
	}
}

func TestFlowHandler_ChooseMethodRefreshesBalance(t *testing.T) {
	stub := newFlowStub(nil)
	poor := *flowAccount
	poor.Balance = decimal.NewFromInt(100)
	services := servicesFunc(func(ctx context.Context, id string) (*domain.BillService, error) {
		return &domain.BillService{ID: id, Name: "Edenor", InvoiceValue: decimal.NewFromInt(400)}, nil
	})
	stub.bill = wizard.NewBillPayment(testSession, &poor, flowCards, services, payerFunc(nil))
	stub.fresh = flowAccount
	h := NewFlowHandler(stub)

	rec := httptest.NewRecorder()
	h.SelectService(rec, newRequest(http.MethodPost, "/", `{"service_id":"edenor"}`, idParam()))
	rec = httptest.NewRecorder()
	h.EnterReference(rec, newRequest(http.MethodPost, "/", `{"reference":"12345678901"}`, idParam()))
	if stub.refreshes != 0 {
		t.Fatalf("expected no refresh before method selection, got %d", stub.refreshes)
	}

	rec = httptest.NewRecorder()
	h.ChooseMethod(rec, newRequest(http.MethodPost, "/", `{"method":"balance"}`, idParam()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.refreshes != 1 {
		t.Fatalf("expected one refresh, got %d", stub.refreshes)
	}

	var resp dto.BillFlowResponse
	decodeBody(t, rec, &resp)
	if resp.Method != domain.PaymentMethodBalance || !resp.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected flow %+v", resp)
	}
}

func TestFlowHandler_Discard(t *testing.T) {
	stub := newFlowStub(nil)
	h := NewFlowHandler(stub)

	rec := httptest.NewRecorder()
	h.Discard(rec, newRequest(http.MethodDelete, "/", "", idParam()))

	if rec.Code != http.StatusNoContent || stub.discarded != "flow-1" {
		t.Fatalf("expected flow-1 to be discarded, got %d %q", rec.Code, stub.discarded)
	}
}
