package platform

import (
	"fmt"

	"github.com/commercesignal/engine/internal/model"
)

// Field names an observation signal a platform adapter may supply.
type Field string

const (
	FieldRank        Field = "rank"
	FieldRating      Field = "rating"
	FieldReviewCount Field = "review_count"
	FieldSellerCount Field = "seller_count"
	FieldBuybox      Field = "buybox"
)

// Info describes a supported platform: its default currency and which
// observation fields its listings can carry. Downstream calculators treat
// fields outside the capability set as missing and redistribute their
// weight, never zero-fill.
type Info struct {
	Platform        model.Platform
	DefaultCurrency string
	Capabilities    map[Field]bool
}

// Supports reports whether the platform can supply the field.
func (i Info) Supports(f Field) bool {
	return i.Capabilities[f]
}

var registry = map[model.Platform]Info{
	model.PlatformAmazon: {
		Platform:        model.PlatformAmazon,
		DefaultCurrency: "USD",
		Capabilities: map[Field]bool{
			FieldRank: true, FieldRating: true, FieldReviewCount: true,
			FieldSellerCount: true, FieldBuybox: true,
		},
	},
	model.PlatformFlipkart: {
		// Flipkart has no public best-seller rank; revenue estimation
		// falls back to the review-velocity model.
		Platform:        model.PlatformFlipkart,
		DefaultCurrency: "INR",
		Capabilities: map[Field]bool{
			FieldRating: true, FieldReviewCount: true, FieldSellerCount: true,
		},
	},
	model.PlatformWalmart: {
		Platform:        model.PlatformWalmart,
		DefaultCurrency: "USD",
		Capabilities: map[Field]bool{
			FieldRank: true, FieldRating: true, FieldReviewCount: true,
			FieldSellerCount: true, FieldBuybox: true,
		},
	},
	model.PlatformEbay: {
		Platform:        model.PlatformEbay,
		DefaultCurrency: "USD",
		Capabilities: map[Field]bool{
			FieldRating: true, FieldReviewCount: true, FieldSellerCount: true,
		},
	},
	model.PlatformAlibaba: {
		Platform:        model.PlatformAlibaba,
		DefaultCurrency: "CNY",
		Capabilities: map[Field]bool{
			FieldRating: true, FieldReviewCount: true, FieldSellerCount: true,
		},
	},
	model.PlatformShopify: {
		Platform:        model.PlatformShopify,
		DefaultCurrency: "USD",
		Capabilities: map[Field]bool{
			FieldRating: true, FieldReviewCount: true,
		},
	},
}

// Lookup returns platform info, or an invalid-input error for platforms the
// engine does not support.
func Lookup(p model.Platform) (Info, error) {
	info, ok := registry[p]
	if !ok {
		return Info{}, fmt.Errorf("%w: unsupported platform %q", model.ErrInvalidInput, p)
	}
	return info, nil
}

// Supported returns the set of supported platforms.
func Supported() []model.Platform {
	out := make([]model.Platform, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	return out
}
