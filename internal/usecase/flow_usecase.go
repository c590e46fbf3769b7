package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/infrastructure/metrics"
	"github.com/digitalmoneyhouse/dmh/internal/wizard"
)

const (
	flowTopUp       = "topup"
	flowBillPayment = "bill_payment"
)

type flowEntry struct {
	expiresAt time.Time
	flow      any
	ownerID   string
}

// FlowUseCase creates wizard flows and keeps them in memory, keyed by a
// random ID and bound to the user who started them. Idle flows expire.
type FlowUseCase struct {
	accounts *AccountUseCase
	cards    *CardUseCase
	services *ServiceUseCase
	funds    *FundsUseCase
	failWhen wizard.FailurePredicate
	metrics  *metrics.Metrics
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	flows map[string]*flowEntry
}

// NewFlowUseCase creates a new FlowUseCase. failWhen may be nil.
func NewFlowUseCase(
	accounts *AccountUseCase,
	cards *CardUseCase,
	services *ServiceUseCase,
	funds *FundsUseCase,
	failWhen wizard.FailurePredicate,
	metrics *metrics.Metrics,
	ttl time.Duration,
) *FlowUseCase {
	if ttl <= 0 {
		ttl = DefaultFlowTTL
	}
	return &FlowUseCase{
		accounts: accounts,
		cards:    cards,
		services: services,
		funds:    funds,
		failWhen: failWhen,
		metrics:  metrics,
		ttl:      ttl,
		now:      time.Now,
		flows:    make(map[string]*flowEntry),
	}
}

// StartTopUp opens a load-funds flow for the session user.
func (uc *FlowUseCase) StartTopUp(ctx context.Context, session domain.Session) (string, *wizard.TopUp, error) {
	account, cards, err := uc.prepare(ctx, session)
	if err != nil {
		return "", nil, err
	}

	w := wizard.NewTopUp(session, account, cards, uc.funds,
		wizard.WithMaxAmount(uc.funds.MaxAmount()),
		wizard.WithFailurePredicate(uc.failWhen),
	)

	return uc.register(ctx, session, flowTopUp, w), w, nil
}

// StartBillPayment opens a bill payment flow for the session user.
func (uc *FlowUseCase) StartBillPayment(ctx context.Context, session domain.Session) (string, *wizard.BillPayment, error) {
	account, cards, err := uc.prepare(ctx, session)
	if err != nil {
		return "", nil, err
	}

	w := wizard.NewBillPayment(session, account, cards, uc.services, uc.funds,
		wizard.WithFailurePredicate(uc.failWhen),
	)

	return uc.register(ctx, session, flowBillPayment, w), w, nil
}

// TopUp returns a running top-up flow of the session user.
func (uc *FlowUseCase) TopUp(session domain.Session, id string) (*wizard.TopUp, error) {
	flow, err := uc.lookup(session, id)
	if err != nil {
		return nil, err
	}
	w, ok := flow.(*wizard.TopUp)
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return w, nil
}

// BillPayment returns a running bill payment flow of the session user.
func (uc *FlowUseCase) BillPayment(session domain.Session, id string) (*wizard.BillPayment, error) {
	flow, err := uc.lookup(session, id)
	if err != nil {
		return nil, err
	}
	w, ok := flow.(*wizard.BillPayment)
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return w, nil
}

// RefreshBillPayment returns a running bill payment flow after reloading
// the account balance it checks a balance payment against. A failed read
// keeps the balance the flow already has.
func (uc *FlowUseCase) RefreshBillPayment(ctx context.Context, session domain.Session, id string) (*wizard.BillPayment, error) {
	w, err := uc.BillPayment(session, id)
	if err != nil {
		return nil, err
	}

	account, err := uc.accounts.GetAccount(ctx, session)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("flow_id", id).Msg("bill payment balance refresh failed")
		return w, nil
	}

	w.RefreshAccount(account)
	return w, nil
}

// SubmitTopUp submits a top-up flow and records its outcome.
func (uc *FlowUseCase) SubmitTopUp(ctx context.Context, session domain.Session, id string) (wizard.TopUpState, error) {
	w, err := uc.TopUp(session, id)
	if err != nil {
		return wizard.TopUpState{}, err
	}

	if err := w.Submit(ctx); err != nil {
		return w.State(), err
	}

	st := w.State()
	uc.outcome(flowTopUp, st.Step.String())
	return st, nil
}

// SubmitBillPayment submits a bill payment flow and records its outcome.
func (uc *FlowUseCase) SubmitBillPayment(ctx context.Context, session domain.Session, id string) (wizard.BillState, error) {
	w, err := uc.BillPayment(session, id)
	if err != nil {
		return wizard.BillState{}, err
	}

	if err := w.Submit(ctx); err != nil {
		return w.State(), err
	}

	st := w.State()
	uc.outcome(flowBillPayment, st.Step.String())
	return st, nil
}

// Discard drops a flow of the session user.
func (uc *FlowUseCase) Discard(session domain.Session, id string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if e, ok := uc.flows[id]; ok && e.ownerID == session.UserID {
		delete(uc.flows, id)
		uc.gauge()
	}
}

// Sweep removes expired flows and returns how many were dropped.
func (uc *FlowUseCase) Sweep() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.now()
	dropped := 0
	for id, e := range uc.flows {
		if now.After(e.expiresAt) {
			delete(uc.flows, id)
			dropped++
		}
	}
	uc.gauge()
	return dropped
}

// Run sweeps expired flows every interval until ctx is done.
func (uc *FlowUseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := uc.Sweep(); n > 0 {
				zerolog.Ctx(ctx).Debug().Int("dropped", n).Msg("expired flows swept")
			}
		}
	}
}

func (uc *FlowUseCase) prepare(ctx context.Context, session domain.Session) (*domain.Account, []*domain.Card, error) {
	account, err := uc.accounts.GetOrCreate(ctx, session)
	if err != nil {
		return nil, nil, err
	}

	cards, err := uc.cards.ListCards(ctx, session)
	if err != nil {
		return nil, nil, err
	}

	return account, cards, nil
}

func (uc *FlowUseCase) register(ctx context.Context, session domain.Session, kind string, flow any) string {
	id := uuid.NewString()

	uc.mu.Lock()
	uc.flows[id] = &flowEntry{
		expiresAt: uc.now().Add(uc.ttl),
		flow:      flow,
		ownerID:   session.UserID,
	}
	uc.gauge()
	uc.mu.Unlock()

	if uc.metrics != nil {
		uc.metrics.FlowsStarted.WithLabelValues(kind).Inc()
	}

	zerolog.Ctx(ctx).Debug().Str("flow_id", id).Str("flow", kind).Msg("flow started")

	return id
}

// lookup finds a live flow owned by session and extends its expiry.
// Flows of other users are reported as missing.
func (uc *FlowUseCase) lookup(session domain.Session, id string) (any, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	e, ok := uc.flows[id]
	if !ok || e.ownerID != session.UserID {
		return nil, domain.ErrFlowNotFound
	}

	now := uc.now()
	if now.After(e.expiresAt) {
		delete(uc.flows, id)
		uc.gauge()
		return nil, domain.ErrFlowNotFound
	}

	e.expiresAt = now.Add(uc.ttl)
	return e.flow, nil
}

// gauge is called with mu held.
func (uc *FlowUseCase) gauge() {
	if uc.metrics != nil {
		uc.metrics.FlowsInFlight.Set(float64(len(uc.flows)))
	}
}

func (uc *FlowUseCase) outcome(kind, step string) {
	if uc.metrics != nil {
		uc.metrics.FlowOutcomes.WithLabelValues(kind, step).Inc()
	}
}
