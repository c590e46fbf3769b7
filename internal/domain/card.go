package domain

import (
	"strings"
	"time"
)

// MaxCardsPerUser caps how many instruments a user can register.
const MaxCardsPerUser = 10

// CardBrand is the card network detected from the number prefix.
type CardBrand string

const (
	CardBrandVisa       CardBrand = "visa"
	CardBrandMastercard CardBrand = "mastercard"
	CardBrandAmex       CardBrand = "amex"
	CardBrandUnknown    CardBrand = "unknown"
)

// Card is a stored payment instrument. The full number is never kept.
type Card struct {
	CreatedAt time.Time
	ID        string
	OwnerID   string
	LastFour  string
	Holder    string
	Expiry    string // MM/YY
	Brand     CardBrand
}

// Masked returns the number as shown to users.
func (c *Card) Masked() string {
	return "**** " + c.LastFour
}

// HasSuffix reports whether the card number ends with suffix.
func (c *Card) HasSuffix(suffix string) bool {
	return suffix != "" && strings.HasSuffix(c.LastFour, suffix)
}

// DetectBrand guesses the network from the leading digits.
func DetectBrand(number string) CardBrand {
	switch {
	case strings.HasPrefix(number, "4"):
		return CardBrandVisa
	case len(number) >= 2 && number[0] == '5' && number[1] >= '1' && number[1] <= '5':
		return CardBrandMastercard
	case strings.HasPrefix(number, "2"):
		return CardBrandMastercard
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return CardBrandAmex
	default:
		return CardBrandUnknown
	}
}
