package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/commercesignal/engine/internal/model"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func validRaw() RawObservation {
	return RawObservation{
		Platform:    model.PlatformAmazon,
		ProductID:   "B08N5WRWNW",
		ObservedAt:  time.Date(2026, 6, 1, 15, 30, 0, 0, time.FixedZone("IST", 5*3600+1800)),
		Price:       49.99,
		Currency:    "usd",
		Rank:        intp(1200),
		Rating:      floatp(4.4),
		ReviewCount: intp(315),
		SellerCount: intp(7),
		InStock:     true,
		Category:    "Electronics",
	}
}

func TestSnapshot_NormalizesTimestampAndCurrency(t *testing.T) {
	snap, err := Snapshot(validRaw())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp not normalized to UTC: %v", snap.Timestamp)
	}
	if snap.Currency != "USD" {
		t.Errorf("expected USD, got %q", snap.Currency)
	}
}

func TestSnapshot_FillsDefaultCurrency(t *testing.T) {
	raw := validRaw()
	raw.Platform = model.PlatformFlipkart
	raw.ProductID = "MOBG6VF5ACXWAHGE"
	raw.Currency = ""

	snap, err := Snapshot(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Currency != "INR" {
		t.Errorf("expected platform default INR, got %q", snap.Currency)
	}
}

func TestSnapshot_DropsUnsupportedFields(t *testing.T) {
	raw := validRaw()
	raw.Platform = model.PlatformFlipkart
	raw.ProductID = "MOBG6VF5ACXWAHGE"

	snap, err := Snapshot(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Rank != nil {
		t.Error("flipkart snapshot must not carry a rank")
	}
	if snap.ReviewCount == nil {
		t.Error("review count is within flipkart capabilities and must survive")
	}
}

func TestSnapshot_ClampsRating(t *testing.T) {
	raw := validRaw()
	raw.Rating = floatp(7.2)

	snap, err := Snapshot(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *snap.Rating != 5 {
		t.Errorf("expected rating clamped to 5, got %v", *snap.Rating)
	}
}

func TestSnapshot_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawObservation)
	}{
		{"unsupported platform", func(r *RawObservation) { r.Platform = "etsy" }},
		{"empty product id", func(r *RawObservation) { r.ProductID = "  " }},
		{"zero timestamp", func(r *RawObservation) { r.ObservedAt = time.Time{} }},
		{"negative price", func(r *RawObservation) { r.Price = -1 }},
		{"bad currency", func(r *RawObservation) { r.Currency = "DOLLARS" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)
			if _, err := Snapshot(raw); !errors.Is(err, model.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSnapshot_ZeroIsAValueNotAnAbsence(t *testing.T) {
	raw := validRaw()
	raw.ReviewCount = intp(0)

	snap, err := Snapshot(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ReviewCount == nil || *snap.ReviewCount != 0 {
		t.Error("zero review count must be preserved, not treated as missing")
	}
}
