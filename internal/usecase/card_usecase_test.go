package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
	"github.com/digitalmoneyhouse/dmh/internal/usecase/mocks"
)

func TestCardUseCase_AddCard(t *testing.T) {
	ctrl := gomock.NewController(t)
	cardRepo := mocks.NewMockCardRepository(ctrl)

	var stored *domain.Card
	cardRepo.EXPECT().ListByOwner(gomock.Any(), "user-1").Return(nil, nil)
	cardRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c *domain.Card) error {
			stored = c
			return nil
		})

	uc := usecase.NewCardUseCase(cardRepo, mocks.NewFakeIDGenerator("card"), nil)

	card, err := uc.AddCard(context.Background(), session, usecase.AddCardInput{
		Number: "4242 4242 4242 4242",
		Holder: "  Ana Gomez ",
		Expiry: "12/40",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if card != stored {
		t.Fatal("expected the stored card to be returned")
	}
	if card.LastFour != "4242" || card.Brand != domain.CardBrandVisa || card.Holder != "Ana Gomez" {
		t.Errorf("unexpected card %+v", card)
	}
	if card.OwnerID != "user-1" || card.ID != "card-1" {
		t.Errorf("unexpected ids %s/%s", card.OwnerID, card.ID)
	}
}

func TestCardUseCase_AddCard_Errors(t *testing.T) {
	full := make([]*domain.Card, domain.MaxCardsPerUser)
	for i := range full {
		full[i] = &domain.Card{ID: fmt.Sprintf("c%d", i), LastFour: fmt.Sprintf("%04d", i), Expiry: "01/39"}
	}

	tests := []struct {
		name        string
		input       usecase.AddCardInput
		existing    []*domain.Card
		listCalled  bool
		expectError error
	}{
		{
			name:        "bad luhn",
			input:       usecase.AddCardInput{Number: "4242424242424241", Holder: "Ana", Expiry: "12/40"},
			expectError: domain.ErrInvalidCardNumber,
		},
		{
			name:        "missing holder",
			input:       usecase.AddCardInput{Number: "4111111111111111", Holder: " ", Expiry: "12/40"},
			expectError: domain.ErrInvalidCardHolder,
		},
		{
			name:        "expired",
			input:       usecase.AddCardInput{Number: "4111111111111111", Holder: "Ana", Expiry: "01/20"},
			expectError: domain.ErrCardExpired,
		},
		{
			name:        "limit reached",
			input:       usecase.AddCardInput{Number: "5555555555554444", Holder: "Ana", Expiry: "12/40"},
			existing:    full,
			listCalled:  true,
			expectError: domain.ErrCardLimitReached,
		},
		{
			name:        "duplicate",
			input:       usecase.AddCardInput{Number: "5555555555554444", Holder: "Ana", Expiry: "12/40"},
			existing:    []*domain.Card{{ID: "c1", LastFour: "4444", Expiry: "12/40"}},
			listCalled:  true,
			expectError: domain.ErrCardAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cardRepo := mocks.NewMockCardRepository(ctrl)
			if tt.listCalled {
				cardRepo.EXPECT().ListByOwner(gomock.Any(), "user-1").Return(tt.existing, nil)
			}

			uc := usecase.NewCardUseCase(cardRepo, mocks.NewFakeIDGenerator("card"), nil)

			_, err := uc.AddCard(context.Background(), session, tt.input)
			if !errors.Is(err, tt.expectError) {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestCardUseCase_ScopedToOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	cardRepo := mocks.NewMockCardRepository(ctrl)

	cardRepo.EXPECT().GetByID(gomock.Any(), "user-1", "card-9").Return(nil, domain.ErrCardNotFound)
	cardRepo.EXPECT().Delete(gomock.Any(), "user-1", "card-9").Return(domain.ErrCardNotFound)
	cardRepo.EXPECT().ListByOwner(gomock.Any(), "user-1").Return([]*domain.Card{{ID: "card-1"}}, nil)

	uc := usecase.NewCardUseCase(cardRepo, mocks.NewFakeIDGenerator("card"), nil)
	ctx := context.Background()

	if _, err := uc.GetCard(ctx, session, "card-9"); !errors.Is(err, domain.ErrCardNotFound) {
		t.Errorf("GetCard: expected ErrCardNotFound, got %v", err)
	}
	if err := uc.DeleteCard(ctx, session, "card-9"); !errors.Is(err, domain.ErrCardNotFound) {
		t.Errorf("DeleteCard: expected ErrCardNotFound, got %v", err)
	}

	cards, err := uc.ListCards(ctx, session)
	if err != nil || len(cards) != 1 {
		t.Errorf("ListCards: got %v, %v", cards, err)
	}

	if _, err := uc.ListCards(ctx, domain.Session{}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
