package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
)

// TopUpFailedMessage is the only failure text shown for a top-up.
const TopUpFailedMessage = "No pudimos cargar el dinero. Intentá nuevamente."

// TopUpStep is a stage of the load-funds flow.
type TopUpStep int

const (
	TopUpOptions TopUpStep = iota
	TopUpTransfer
	TopUpCardSelect
	TopUpCardAmount
	TopUpCardReview
	TopUpSubmitting
	TopUpSuccess
	TopUpError
)

func (s TopUpStep) String() string {
	switch s {
	case TopUpOptions:
		return "options"
	case TopUpTransfer:
		return "transfer"
	case TopUpCardSelect:
		return "card_select"
	case TopUpCardAmount:
		return "card_amount"
	case TopUpCardReview:
		return "card_review"
	case TopUpSubmitting:
		return "submitting"
	case TopUpSuccess:
		return "success"
	case TopUpError:
		return "error"
	default:
		return "unknown"
	}
}

type topUpAction int

const (
	topUpChooseTransfer topUpAction = iota
	topUpChooseCard
	topUpSelectCard
	topUpEnterAmount
	topUpSubmit
	topUpSucceed
	topUpFail
	topUpRetry
	topUpCancel
)

// next is the transition table. The bool is false when action is not
// allowed from s.
func (s TopUpStep) next(action topUpAction) (TopUpStep, bool) {
	switch s {
	case TopUpOptions:
		switch action {
		case topUpChooseTransfer:
			return TopUpTransfer, true
		case topUpChooseCard:
			return TopUpCardSelect, true
		}
	case TopUpTransfer:
		if action == topUpCancel {
			return TopUpOptions, true
		}
	case TopUpCardSelect:
		switch action {
		case topUpSelectCard:
			return TopUpCardAmount, true
		case topUpCancel:
			return TopUpOptions, true
		}
	case TopUpCardAmount:
		switch action {
		case topUpEnterAmount:
			return TopUpCardReview, true
		case topUpCancel:
			return TopUpOptions, true
		}
	case TopUpCardReview:
		switch action {
		case topUpSubmit:
			return TopUpSubmitting, true
		case topUpCancel:
			return TopUpOptions, true
		}
	case TopUpSubmitting:
		switch action {
		case topUpSucceed:
			return TopUpSuccess, true
		case topUpFail:
			return TopUpError, true
		}
	case TopUpSuccess:
		// terminal
	case TopUpError:
		switch action {
		case topUpRetry:
			return TopUpCardReview, true
		case topUpCancel:
			return TopUpOptions, true
		}
	}

	return s, false
}

// FundsLoader credits an account from a card and returns the new balance.
type FundsLoader interface {
	LoadFunds(ctx context.Context, req domain.LoadFundsRequest) (decimal.Decimal, error)
}

// TopUpState is a point-in-time copy of a top-up flow.
type TopUpState struct {
	CompletedAt     time.Time
	Card            *domain.Card
	Step            TopUpStep
	CVU             string
	Alias           string
	ValidationError string
	LastError       string
	Amount          decimal.Decimal
	MaxAmount       decimal.Decimal
	NewBalance      decimal.Decimal
	Submitting      bool
}

// TopUp drives loading funds into the session's account, either by showing
// the account's CVU and alias for a bank transfer or by charging one of the
// user's cards. It is safe for concurrent use.
type TopUp struct {
	loader  FundsLoader
	account *domain.Account
	cards   []*domain.Card
	session domain.Session
	opts    options

	mu         sync.Mutex
	step       TopUpStep
	card       *domain.Card
	amount     decimal.Decimal
	newBalance decimal.Decimal
	completed  time.Time
	validation string
	lastError  string
	submitting bool
}

// NewTopUp starts a flow at TopUpOptions. cards is the session user's
// instrument list; SelectCard only accepts cards from it.
func NewTopUp(session domain.Session, account *domain.Account, cards []*domain.Card, loader FundsLoader, opts ...Option) *TopUp {
	return &TopUp{
		session: session,
		account: copyAccount(account),
		cards:   cards,
		loader:  loader,
		opts:    buildOptions(opts),
		step:    TopUpOptions,
	}
}

// Session returns the identity the flow was created for.
func (w *TopUp) Session() domain.Session {
	return w.session
}

// ChooseTransfer shows the account details for a bank transfer.
func (w *TopUp) ChooseTransfer() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.move(topUpChooseTransfer)
}

// ChooseCard moves to instrument selection.
func (w *TopUp) ChooseCard() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.move(topUpChooseCard)
}

// SelectCard picks the instrument to charge.
func (w *TopUp) SelectCard(cardID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.step.next(topUpSelectCard); !ok {
		return ErrInvalidTransition
	}

	card, ok := findCard(w.cards, cardID)
	if !ok {
		w.validation = domain.ErrCardNotFound.Error()
		return domain.ErrCardNotFound
	}

	w.card = card
	return w.move(topUpSelectCard)
}

// EnterAmount sets the amount to load. An amount outside (0, MaxAmount]
// is rejected and the flow stays in TopUpCardAmount.
func (w *TopUp) EnterAmount(amount decimal.Decimal) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.step.next(topUpEnterAmount); !ok {
		return ErrInvalidTransition
	}

	if w.card == nil {
		return ErrNoCardSelected
	}

	if err := domain.ValidateAmount(amount, w.opts.maxAmount); err != nil {
		w.validation = err.Error()
		return err
	}

	w.amount = amount
	return w.move(topUpEnterAmount)
}

// Submit performs the single load-funds call. A backend failure is not
// returned: the flow moves to TopUpError with TopUpFailedMessage. The
// returned error only reports why Submit could not start.
func (w *TopUp) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return ErrSubmissionInProgress
	}
	if err := w.move(topUpSubmit); err != nil {
		w.mu.Unlock()
		return err
	}
	w.submitting = true
	w.lastError = ""
	card, amount := w.card, w.amount
	w.mu.Unlock()

	logger := zerolog.Ctx(ctx).With().
		Str("flow", "topup").
		Str("user_id", w.session.UserID).
		Str("card_id", card.ID).
		Str("amount", amount.String()).
		Logger()

	var (
		balance decimal.Decimal
		err     error
	)
	if w.opts.failWhen(card) {
		err = errForcedFailure
	} else {
		balance, err = w.loader.LoadFunds(ctx, domain.LoadFundsRequest{
			AccountID: w.account.ID,
			CardID:    card.ID,
			Amount:    amount,
		})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if err != nil {
		logger.Error().Err(err).Msg("load funds failed")
		w.lastError = TopUpFailedMessage
		return w.move(topUpFail)
	}

	logger.Info().Str("balance", balance.String()).Msg("funds loaded")
	w.newBalance = balance
	w.completed = w.opts.now()
	return w.move(topUpSucceed)
}

// Retry returns from TopUpError to the review step keeping the card and
// amount.
func (w *TopUp) Retry() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.move(topUpRetry); err != nil {
		return err
	}
	w.lastError = ""
	return nil
}

// Cancel abandons the current choice and goes back to TopUpOptions.
func (w *TopUp) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.move(topUpCancel); err != nil {
		return err
	}
	w.card = nil
	w.amount = decimal.Zero
	w.lastError = ""
	return nil
}

// State returns a copy of the flow for presentation.
func (w *TopUp) State() TopUpState {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := TopUpState{
		CompletedAt:     w.completed,
		Card:            copyCard(w.card),
		Step:            w.step,
		ValidationError: w.validation,
		LastError:       w.lastError,
		Amount:          w.amount,
		MaxAmount:       w.opts.maxAmount,
		NewBalance:      w.newBalance,
		Submitting:      w.submitting,
	}

	if w.step == TopUpTransfer {
		st.CVU = w.account.CVU
		st.Alias = w.account.Alias
	}

	return st
}

// move applies action; callers hold mu. A successful move clears the
// pending validation message.
func (w *TopUp) move(action topUpAction) error {
	next, ok := w.step.next(action)
	if !ok {
		return ErrInvalidTransition
	}
	w.step = next
	w.validation = ""
	return nil
}
