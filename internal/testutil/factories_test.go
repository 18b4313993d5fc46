package testutil

import (
	"testing"
	"time"

	"github.com/commercesignal/engine/internal/model"
)

func TestFactoryDeterminism(t *testing.T) {
	a := NewTestDataFactory(42)
	b := NewTestDataFactory(42)

	if a.GenerateProductID() != b.GenerateProductID() {
		t.Error("same seed must produce the same product id")
	}
	if a.GenerateBrand() != b.GenerateBrand() {
		t.Error("same seed must produce the same brand")
	}
}

func TestGenerateProductID_Shape(t *testing.T) {
	f := NewTestDataFactory(1)
	id := f.GenerateProductID()
	if len(id) != 10 {
		t.Errorf("expected a 10-char id, got %q", id)
	}
}

func TestHistory_Ordering(t *testing.T) {
	f := NewTestDataFactory(7)
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	snaps := f.History(model.PlatformAmazon, "B000TEST01", 14, end)

	if len(snaps) != 14 {
		t.Fatalf("expected 14 snapshots, got %d", len(snaps))
	}
	for i := 1; i < len(snaps); i++ {
		if !snaps[i].Timestamp.After(snaps[i-1].Timestamp) {
			t.Fatal("history must be strictly ascending")
		}
	}
	if !snaps[len(snaps)-1].Timestamp.Equal(end) {
		t.Errorf("series must end at the requested time, got %v", snaps[len(snaps)-1].Timestamp)
	}
	prev := 0
	for _, s := range snaps {
		if s.ReviewCount == nil || *s.ReviewCount < prev {
			t.Fatal("review counts must grow monotonically")
		}
		prev = *s.ReviewCount
	}
}

func TestHistory_FlipkartHasNoRank(t *testing.T) {
	f := NewTestDataFactory(3)
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range f.History(model.PlatformFlipkart, "MOBTEST", 5, end) {
		if s.Rank != nil {
			t.Fatal("flipkart snapshots must not carry a rank")
		}
	}
}
