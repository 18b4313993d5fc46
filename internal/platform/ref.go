package platform

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/commercesignal/engine/internal/model"
)

// Ref is a validated product reference.
type Ref struct {
	Platform  model.Platform
	ProductID string
}

var (
	asinPattern    = regexp.MustCompile(`/(?:dp|gp/product|product)/([A-Z0-9]{10})(?:[/?]|$)`)
	fsnPattern     = regexp.MustCompile(`[?&]pid=([A-Z0-9]{16})`)
	flipkartItem   = regexp.MustCompile(`/p/(itm[a-z0-9]+)`)
	walmartPattern = regexp.MustCompile(`/ip/(?:[^/]+/)?(\d{6,})`)
	ebayPattern    = regexp.MustCompile(`/itm/(?:[^/]+/)?(\d{9,15})`)
	alibabaPattern = regexp.MustCompile(`(?:product-detail|p)/(?:[^/]*_)?(\d{8,})(?:\.html)?`)
	shopifyPattern = regexp.MustCompile(`/products/([a-z0-9][a-z0-9\-]*)`)
)

// ParseProductURL maps a marketplace product URL to a Ref. Malformed URLs
// and unrecognized marketplaces are rejected with a descriptive
// invalid-input error before anything reaches the engine core.
func ParseProductURL(raw string) (Ref, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Ref{}, fmt.Errorf("%w: malformed product URL %q", model.ErrInvalidInput, raw)
	}

	host := strings.ToLower(u.Host)
	full := u.Path
	if u.RawQuery != "" {
		full += "?" + u.RawQuery
	}

	switch {
	case strings.Contains(host, "amazon."):
		if m := asinPattern.FindStringSubmatch(full); m != nil {
			return Ref{Platform: model.PlatformAmazon, ProductID: m[1]}, nil
		}
		return Ref{}, fmt.Errorf("%w: no ASIN found in %q", model.ErrInvalidInput, raw)

	case strings.Contains(host, "flipkart."):
		if m := fsnPattern.FindStringSubmatch(full); m != nil {
			return Ref{Platform: model.PlatformFlipkart, ProductID: m[1]}, nil
		}
		if m := flipkartItem.FindStringSubmatch(full); m != nil {
			return Ref{Platform: model.PlatformFlipkart, ProductID: m[1]}, nil
		}
		return Ref{}, fmt.Errorf("%w: no FSN found in %q", model.ErrInvalidInput, raw)

	case strings.Contains(host, "walmart."):
		if m := walmartPattern.FindStringSubmatch(full); m != nil {
			return Ref{Platform: model.PlatformWalmart, ProductID: m[1]}, nil
		}
		return Ref{}, fmt.Errorf("%w: no item id found in %q", model.ErrInvalidInput, raw)

	case strings.Contains(host, "ebay."):
		if m := ebayPattern.FindStringSubmatch(full); m != nil {
			return Ref{Platform: model.PlatformEbay, ProductID: m[1]}, nil
		}
		return Ref{}, fmt.Errorf("%w: no item id found in %q", model.ErrInvalidInput, raw)

	case strings.Contains(host, "alibaba."):
		if m := alibabaPattern.FindStringSubmatch(full); m != nil {
			return Ref{Platform: model.PlatformAlibaba, ProductID: m[1]}, nil
		}
		return Ref{}, fmt.Errorf("%w: no product id found in %q", model.ErrInvalidInput, raw)

	case strings.Contains(host, "myshopify.") || strings.Contains(full, "/products/"):
		if m := shopifyPattern.FindStringSubmatch(u.Path); m != nil {
			return Ref{Platform: model.PlatformShopify, ProductID: m[1]}, nil
		}
		return Ref{}, fmt.Errorf("%w: no product handle found in %q", model.ErrInvalidInput, raw)
	}

	return Ref{}, fmt.Errorf("%w: unrecognized marketplace host %q", model.ErrInvalidInput, host)
}

// ParseRef validates an explicit platform + product id pair.
func ParseRef(p model.Platform, productID string) (Ref, error) {
	if _, err := Lookup(p); err != nil {
		return Ref{}, err
	}
	if strings.TrimSpace(productID) == "" {
		return Ref{}, fmt.Errorf("%w: empty product id", model.ErrInvalidInput)
	}
	return Ref{Platform: p, ProductID: productID}, nil
}
