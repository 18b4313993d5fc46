package history

import (
	"time"

	"github.com/commercesignal/engine/internal/model"
)

// ProductKey identifies one tracked product.
type ProductKey struct {
	Platform  model.Platform `json:"platform"`
	ProductID string         `json:"product_id"`
}

// Store is the snapshot history kept per product. Appends must be strictly
// newer than the product's latest snapshot; reads return copies so callers
// can never see a half-written window.
type Store interface {
	// Append records a snapshot, rejecting out-of-order timestamps.
	Append(snap model.ProductSnapshot) error

	// AppendAndEvaluate appends and then calls eval with the updated
	// trailing window while still holding the product's lock, so no
	// concurrent append for the same product interleaves with evaluation.
	AppendAndEvaluate(snap model.ProductSnapshot, windowDays int, eval func(window []model.ProductSnapshot)) error

	// Window returns the product's snapshots within the trailing window,
	// oldest first, capped at maxSize newest entries. Unknown products
	// return ErrNotFound.
	Window(platform model.Platform, productID string, windowDays int, maxSize int) ([]model.ProductSnapshot, error)

	// Latest returns the most recent snapshot for a product.
	Latest(platform model.Platform, productID string) (model.ProductSnapshot, error)

	// Products lists every tracked product key.
	Products() []ProductKey

	// Prune drops snapshots older than the cutoff, returning the number
	// removed. Products left empty are forgotten entirely.
	Prune(cutoff time.Time) int
}
