package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/commercesignal/engine/internal/model"
	"github.com/commercesignal/engine/internal/platform"
)

// RawObservation is what a platform adapter hands over after parsing a
// listing. Pointer fields are nil when the adapter could not observe the
// signal; zero is a value, not an absence.
type RawObservation struct {
	Platform     model.Platform
	ProductID    string
	ObservedAt   time.Time
	Price        float64
	Currency     string // empty = platform default
	Rank         *int
	Rating       *float64
	ReviewCount  *int
	SellerCount  *int
	BuyboxSeller string
	InStock      bool
	Category     string
	Brand        string
}

// Snapshot maps a raw observation into a canonical ProductSnapshot. Pure
// function: it validates identity and price, normalizes the timestamp to
// UTC, fills the platform's default currency, and drops any field the
// platform does not declare a capability for so downstream weight
// redistribution stays honest.
func Snapshot(raw RawObservation) (model.ProductSnapshot, error) {
	info, err := platform.Lookup(raw.Platform)
	if err != nil {
		return model.ProductSnapshot{}, err
	}
	if strings.TrimSpace(raw.ProductID) == "" {
		return model.ProductSnapshot{}, fmt.Errorf("%w: empty product id", model.ErrInvalidInput)
	}
	if raw.ObservedAt.IsZero() {
		return model.ProductSnapshot{}, fmt.Errorf("%w: observation has no timestamp", model.ErrInvalidInput)
	}
	if raw.Price < 0 {
		return model.ProductSnapshot{}, fmt.Errorf("%w: negative price %.2f", model.ErrInvalidInput, raw.Price)
	}

	currency := strings.ToUpper(strings.TrimSpace(raw.Currency))
	if currency == "" {
		currency = info.DefaultCurrency
	}
	if len(currency) != 3 {
		return model.ProductSnapshot{}, fmt.Errorf("%w: bad currency code %q", model.ErrInvalidInput, raw.Currency)
	}

	snap := model.ProductSnapshot{
		Platform:  raw.Platform,
		ProductID: raw.ProductID,
		Timestamp: raw.ObservedAt.UTC(),
		Price:     raw.Price,
		Currency:  currency,
		InStock:   raw.InStock,
		Category:  raw.Category,
		Brand:     raw.Brand,
	}

	if info.Supports(platform.FieldRank) && raw.Rank != nil && *raw.Rank > 0 {
		rank := *raw.Rank
		snap.Rank = &rank
	}
	if info.Supports(platform.FieldRating) && raw.Rating != nil {
		rating := clampRating(*raw.Rating)
		snap.Rating = &rating
	}
	if info.Supports(platform.FieldReviewCount) && raw.ReviewCount != nil && *raw.ReviewCount >= 0 {
		reviews := *raw.ReviewCount
		snap.ReviewCount = &reviews
	}
	if info.Supports(platform.FieldSellerCount) && raw.SellerCount != nil && *raw.SellerCount >= 0 {
		sellers := *raw.SellerCount
		snap.SellerCount = &sellers
	}
	if info.Supports(platform.FieldBuybox) {
		snap.BuyboxSeller = strings.TrimSpace(raw.BuyboxSeller)
	}

	return snap, nil
}

func clampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}
