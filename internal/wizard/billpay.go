package wizard

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
)

// BillPaymentFailedMessage is the only failure text shown for a bill payment.
const BillPaymentFailedMessage = "No pudimos procesar el pago. Intentá nuevamente."

// BillStep is a stage of the bill payment flow.
type BillStep int

const (
	BillServiceSelect BillStep = iota
	BillReference
	BillMethodSelect
	BillSubmitting
	BillSuccess
	BillError
)

func (s BillStep) String() string {
	switch s {
	case BillServiceSelect:
		return "service_select"
	case BillReference:
		return "reference"
	case BillMethodSelect:
		return "method_select"
	case BillSubmitting:
		return "submitting"
	case BillSuccess:
		return "success"
	case BillError:
		return "error"
	default:
		return "unknown"
	}
}

type billAction int

const (
	billSelectService billAction = iota
	billEnterReference
	billChooseMethod
	billSubmit
	billSucceed
	billFail
	billRetry
	billCancel
)

func (s BillStep) next(action billAction) (BillStep, bool) {
	switch s {
	case BillServiceSelect:
		if action == billSelectService {
			return BillReference, true
		}
	case BillReference:
		switch action {
		case billEnterReference:
			return BillMethodSelect, true
		case billCancel:
			return BillServiceSelect, true
		}
	case BillMethodSelect:
		switch action {
		case billChooseMethod:
			return BillMethodSelect, true
		case billSubmit:
			return BillSubmitting, true
		case billCancel:
			return BillServiceSelect, true
		}
	case BillSubmitting:
		switch action {
		case billSucceed:
			return BillSuccess, true
		case billFail:
			return BillError, true
		}
	case BillSuccess:
		// terminal
	case BillError:
		switch action {
		case billRetry:
			return BillMethodSelect, true
		case billCancel:
			return BillServiceSelect, true
		}
	}

	return s, false
}

// ServiceFinder looks up a payable service.
type ServiceFinder interface {
	GetService(ctx context.Context, id string) (*domain.BillService, error)
}

// BillPayer settles an invoice.
type BillPayer interface {
	PayBill(ctx context.Context, req domain.PayBillRequest) (*domain.Payment, error)
}

// BillState is a point-in-time copy of a bill payment flow.
type BillState struct {
	Service         *domain.BillService
	Card            *domain.Card
	Payment         *domain.Payment
	Step            BillStep
	Reference       string
	Method          domain.PaymentMethod
	ValidationError string
	LastError       string
	Balance         decimal.Decimal
	Submitting      bool
}

// BillPayment drives paying one invoice from the account balance or a card.
// It is safe for concurrent use.
type BillPayment struct {
	services ServiceFinder
	payer    BillPayer
	account  *domain.Account
	cards    []*domain.Card
	session  domain.Session
	opts     options

	mu         sync.Mutex
	step       BillStep
	service    *domain.BillService
	reference  string
	method     domain.PaymentMethod
	card       *domain.Card
	payment    *domain.Payment
	validation string
	lastError  string
	submitting bool
}

// NewBillPayment starts a flow at BillServiceSelect.
func NewBillPayment(
	session domain.Session,
	account *domain.Account,
	cards []*domain.Card,
	services ServiceFinder,
	payer BillPayer,
	opts ...Option,
) *BillPayment {
	return &BillPayment{
		session:  session,
		account:  copyAccount(account),
		cards:    cards,
		services: services,
		payer:    payer,
		opts:     buildOptions(opts),
		step:     BillServiceSelect,
	}
}

// Session returns the identity the flow was created for.
func (w *BillPayment) Session() domain.Session {
	return w.session
}

// SelectService picks the company to pay.
func (w *BillPayment) SelectService(ctx context.Context, serviceID string) error {
	w.mu.Lock()
	if _, ok := w.step.next(billSelectService); !ok {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	w.mu.Unlock()

	svc, err := w.services.GetService(ctx, serviceID)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.validation = err.Error()
		return err
	}

	if err := w.move(billSelectService); err != nil {
		return err
	}
	w.service = svc
	return nil
}

// EnterReference sets the customer reference printed on the invoice.
func (w *BillPayment) EnterReference(reference string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.step.next(billEnterReference); !ok {
		return ErrInvalidTransition
	}

	reference = strings.TrimSpace(reference)
	if err := domain.ValidateBillReference(reference); err != nil {
		w.validation = err.Error()
		return err
	}

	w.reference = reference
	return w.move(billEnterReference)
}

// ChooseMethod selects how to pay. cardID is required for
// PaymentMethodCard and ignored otherwise. Paying from the balance requires
// the balance to cover the invoice; the balance is the copy taken at start
// or at the last RefreshAccount.
func (w *BillPayment) ChooseMethod(method domain.PaymentMethod, cardID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.step.next(billChooseMethod); !ok {
		return ErrInvalidTransition
	}

	var card *domain.Card
	switch method {
	case domain.PaymentMethodBalance:
		if w.balance().LessThan(w.service.InvoiceValue) {
			w.validation = domain.ErrInsufficientFunds.Error()
			return domain.ErrInsufficientFunds
		}
	case domain.PaymentMethodCard:
		c, ok := findCard(w.cards, cardID)
		if !ok {
			w.validation = domain.ErrCardNotFound.Error()
			return domain.ErrCardNotFound
		}
		card = c
	default:
		w.validation = ErrNoMethodSelected.Error()
		return ErrNoMethodSelected
	}

	w.method = method
	w.card = card
	return w.move(billChooseMethod)
}

// Submit performs the single payment call. Like TopUp.Submit, a backend
// failure moves the flow to BillError instead of being returned.
func (w *BillPayment) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return ErrSubmissionInProgress
	}
	if _, ok := w.step.next(billSubmit); !ok {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	if !w.method.IsValid() {
		w.mu.Unlock()
		return ErrNoMethodSelected
	}
	_ = w.move(billSubmit)
	w.submitting = true
	w.lastError = ""

	req := domain.PayBillRequest{
		AccountID: w.account.ID,
		ServiceID: w.service.ID,
		Reference: w.reference,
		Method:    w.method,
		Amount:    w.service.InvoiceValue,
	}
	card := w.card
	if card != nil {
		req.CardID = card.ID
	}
	w.mu.Unlock()

	logger := zerolog.Ctx(ctx).With().
		Str("flow", "bill_payment").
		Str("user_id", w.session.UserID).
		Str("service_id", req.ServiceID).
		Str("method", string(req.Method)).
		Logger()

	var (
		payment *domain.Payment
		err     error
	)
	if card != nil && w.opts.failWhen(card) {
		err = errForcedFailure
	} else {
		payment, err = w.payer.PayBill(ctx, req)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if err != nil {
		logger.Error().Err(err).Msg("bill payment failed")
		w.lastError = BillPaymentFailedMessage
		return w.move(billFail)
	}

	logger.Info().Str("payment_id", payment.ID).Msg("bill paid")
	w.payment = payment
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = w.opts.now().UTC()
	}
	if req.Method == domain.PaymentMethodBalance {
		w.account.Balance = w.account.Balance.Sub(req.Amount)
	}
	return w.move(billSucceed)
}

// Retry returns from BillError to method selection keeping service,
// reference and method.
func (w *BillPayment) Retry() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.move(billRetry); err != nil {
		return err
	}
	w.lastError = ""
	return nil
}

// Cancel drops every selection and returns to BillServiceSelect.
func (w *BillPayment) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.move(billCancel); err != nil {
		return err
	}
	w.service = nil
	w.reference = ""
	w.method = ""
	w.card = nil
	w.lastError = ""
	return nil
}

// State returns a copy of the flow for presentation.
func (w *BillPayment) State() BillState {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := BillState{
		Card:            copyCard(w.card),
		Step:            w.step,
		Reference:       w.reference,
		Method:          w.method,
		ValidationError: w.validation,
		LastError:       w.lastError,
		Balance:         w.balance(),
		Submitting:      w.submitting,
	}
	if w.service != nil {
		svc := *w.service
		st.Service = &svc
	}
	if w.payment != nil {
		p := *w.payment
		st.Payment = &p
	}
	return st
}

// RefreshAccount replaces the balance copied at start with a fresher read
// of the same account. It is ignored for another account and while the
// payment is submitting or done.
func (w *BillPayment) RefreshAccount(account *domain.Account) {
	if account == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if account.ID != w.account.ID || w.submitting || w.step == BillSuccess {
		return
	}
	w.account = copyAccount(account)
}

func (w *BillPayment) balance() decimal.Decimal {
	return w.account.Balance
}

func (w *BillPayment) move(action billAction) error {
	next, ok := w.step.next(action)
	if !ok {
		return ErrInvalidTransition
	}
	w.step = next
	w.validation = ""
	return nil
}
