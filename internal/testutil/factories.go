package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/commercesignal/engine/internal/model"
)

// TestDataFactory provides methods for generating dynamic test data
type TestDataFactory struct {
	rand *rand.Rand
}

// NewTestDataFactory creates a new test data factory with a seeded random generator
func NewTestDataFactory(seed int64) *TestDataFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestDataFactory{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// GenerateProductID generates a random ASIN-shaped product id
func (f *TestDataFactory) GenerateProductID() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ0123456789"
	id := make([]byte, 10)
	for i := range id {
		id[i] = alphabet[f.rand.Intn(len(alphabet))]
	}
	return string(id)
}

// GenerateCategory generates a random category name
func (f *TestDataFactory) GenerateCategory() string {
	categories := []string{"Electronics", "Home & Kitchen", "Toys & Games", "Books", "Beauty & Personal Care"}
	return categories[f.rand.Intn(len(categories))]
}

// GenerateBrand generates a random brand name
func (f *TestDataFactory) GenerateBrand() string {
	return fmt.Sprintf("TestBrand%d", f.rand.Intn(100))
}

// GenerateSeller generates a random seller name
func (f *TestDataFactory) GenerateSeller() string {
	sellers := []string{"AcmeDirect", "PrimeDeals", "BulkMart", "QuickShip", "ValueHub"}
	return sellers[f.rand.Intn(len(sellers))]
}

// Snapshot builds a plausible in-stock snapshot at the given time
func (f *TestDataFactory) Snapshot(platform model.Platform, productID string, at time.Time) model.ProductSnapshot {
	rank := f.rand.Intn(5000) + 1
	rating := 3.5 + f.rand.Float64()*1.5
	reviews := f.rand.Intn(2000) + 10
	sellers := f.rand.Intn(20) + 1
	snap := model.ProductSnapshot{
		Platform:     platform,
		ProductID:    productID,
		Timestamp:    at.UTC(),
		Price:        10 + f.rand.Float64()*90,
		Currency:     "USD",
		Rating:       &rating,
		ReviewCount:  &reviews,
		SellerCount:  &sellers,
		BuyboxSeller: f.GenerateSeller(),
		InStock:      true,
		Category:     f.GenerateCategory(),
	}
	if platform != model.PlatformFlipkart {
		snap.Rank = &rank
	}
	return snap
}

// History builds a daily snapshot series ending at end, oldest first. Review
// counts grow monotonically and rank drifts slightly so the series looks
// like a real tracked product.
func (f *TestDataFactory) History(platform model.Platform, productID string, days int, end time.Time) []model.ProductSnapshot {
	snaps := make([]model.ProductSnapshot, 0, days)
	rank := f.rand.Intn(2000) + 100
	reviews := f.rand.Intn(500) + 50
	price := 20 + f.rand.Float64()*60
	for i := days - 1; i >= 0; i-- {
		at := end.AddDate(0, 0, -i)
		snap := f.Snapshot(platform, productID, at)
		rank += f.rand.Intn(41) - 20
		if rank < 1 {
			rank = 1
		}
		reviews += f.rand.Intn(10)
		r, rc := rank, reviews
		snap.Rank = &r
		snap.ReviewCount = &rc
		snap.Price = price
		if platform == model.PlatformFlipkart {
			snap.Rank = nil
		}
		snaps = append(snaps, snap)
	}
	return snaps
}
