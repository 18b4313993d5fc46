package platform

import (
	"errors"
	"testing"

	"github.com/commercesignal/engine/internal/model"
)

func TestParseProductURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		platform model.Platform
		id       string
	}{
		{"amazon dp", "https://www.amazon.com/dp/B08N5WRWNW", model.PlatformAmazon, "B08N5WRWNW"},
		{"amazon dp with slug", "https://www.amazon.com/Some-Product-Name/dp/B08N5WRWNW/ref=sr_1_1", model.PlatformAmazon, "B08N5WRWNW"},
		{"amazon gp product", "https://www.amazon.in/gp/product/B07XJ8C8F5?th=1", model.PlatformAmazon, "B07XJ8C8F5"},
		{"flipkart pid", "https://www.flipkart.com/phone/p/itmabc?pid=MOBG6VF5ACXWAHGE", model.PlatformFlipkart, "MOBG6VF5ACXWAHGE"},
		{"flipkart item", "https://www.flipkart.com/some-phone/p/itmf3qe9gxzw", model.PlatformFlipkart, "itmf3qe9gxzw"},
		{"walmart", "https://www.walmart.com/ip/Some-Product/123456789", model.PlatformWalmart, "123456789"},
		{"ebay", "https://www.ebay.com/itm/234567890123", model.PlatformEbay, "234567890123"},
		{"alibaba", "https://www.alibaba.com/product-detail/Widget_62512345678.html", model.PlatformAlibaba, "62512345678"},
		{"shopify", "https://store.myshopify.com/products/blue-widget", model.PlatformShopify, "blue-widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseProductURL(tt.url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref.Platform != tt.platform {
				t.Errorf("expected platform %q, got %q", tt.platform, ref.Platform)
			}
			if ref.ProductID != tt.id {
				t.Errorf("expected id %q, got %q", tt.id, ref.ProductID)
			}
		})
	}
}

func TestParseProductURL_Rejects(t *testing.T) {
	urls := []string{
		"not a url",
		"https://www.amazon.com/gp/help",         // no ASIN
		"https://www.unknownshop.com/item/12345", // unrecognized host
		"https://www.ebay.com/itm/12",            // id too short
	}
	for _, raw := range urls {
		if _, err := ParseProductURL(raw); err == nil {
			t.Errorf("expected rejection for %q", raw)
		} else if !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %q, got %v", raw, err)
		}
	}
}

func TestLookup(t *testing.T) {
	info, err := Lookup(model.PlatformFlipkart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.DefaultCurrency != "INR" {
		t.Errorf("expected INR default, got %q", info.DefaultCurrency)
	}
	if info.Supports(FieldRank) {
		t.Error("flipkart must not declare a rank capability")
	}

	if _, err := Lookup(model.Platform("etsy")); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unsupported platform, got %v", err)
	}
}

func TestParseRef(t *testing.T) {
	if _, err := ParseRef(model.PlatformAmazon, "  "); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank id, got %v", err)
	}
	ref, err := ParseRef(model.PlatformAmazon, "B08N5WRWNW")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ProductID != "B08N5WRWNW" {
		t.Errorf("unexpected ref: %+v", ref)
	}
}
