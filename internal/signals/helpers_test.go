package signals

import (
	"time"

	"github.com/commercesignal/engine/internal/config"
	"github.com/commercesignal/engine/internal/model"
)

var testBase = config.DefaultCalibration().Baselines

var t0 = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

// snapAt builds an in-stock snapshot with the common fields set.
func snapAt(day int, price float64, rank, reviews int) model.ProductSnapshot {
	r, rc := rank, reviews
	return model.ProductSnapshot{
		Platform:    model.PlatformAmazon,
		ProductID:   "B000TEST01",
		Timestamp:   t0.AddDate(0, 0, day),
		Price:       price,
		Currency:    "USD",
		Rank:        &r,
		ReviewCount: &rc,
		InStock:     true,
	}
}

func withSellers(s model.ProductSnapshot, sellers int, buybox string) model.ProductSnapshot {
	s.SellerCount = &sellers
	s.BuyboxSeller = buybox
	return s
}

func withRating(s model.ProductSnapshot, rating float64) model.ProductSnapshot {
	s.Rating = &rating
	return s
}

func outOfStock(s model.ProductSnapshot) model.ProductSnapshot {
	s.InStock = false
	return s
}
