package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/commercesignal/engine/internal/model"
)

// MemoryStore keeps per-product snapshot series in memory, guarded by a
// per-product lock so appends for different products never contend.
// Optionally mirrors the data to a JSON file.
type MemoryStore struct {
	mu       sync.RWMutex // guards the products map itself
	products map[ProductKey]*series

	path            string // empty = no persistence
	persistOnAppend bool
	log             zerolog.Logger
}

type series struct {
	mu    sync.Mutex
	snaps []model.ProductSnapshot // ascending by timestamp
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithPersistence mirrors the store to a JSON file at path. When onAppend is
// set, every append rewrites the file; otherwise only Save does.
func WithPersistence(path string, onAppend bool) Option {
	return func(s *MemoryStore) {
		s.path = path
		s.persistOnAppend = onAppend
	}
}

// NewMemoryStore creates an empty store, loading prior state from the
// persistence file when one is configured and present.
func NewMemoryStore(log zerolog.Logger, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		products: make(map[ProductKey]*series),
		log:      log.With().Str("component", "history").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.path != "" {
		if err := s.load(); err != nil {
			s.log.Warn().Err(err).Str("path", s.path).Msg("could not load history file, starting empty")
		}
	}
	return s
}

// Append records a snapshot. The timestamp must be strictly after the
// product's latest snapshot.
func (s *MemoryStore) Append(snap model.ProductSnapshot) error {
	return s.AppendAndEvaluate(snap, 0, nil)
}

// AppendAndEvaluate appends and runs eval with the fresh window under the
// product's lock. windowDays of 0 passes the full series.
func (s *MemoryStore) AppendAndEvaluate(snap model.ProductSnapshot, windowDays int, eval func(window []model.ProductSnapshot)) error {
	if snap.Platform == "" || snap.ProductID == "" {
		return fmt.Errorf("snapshot missing product identity: %w", model.ErrInvalidInput)
	}
	if snap.Timestamp.IsZero() {
		return fmt.Errorf("snapshot missing timestamp: %w", model.ErrInvalidInput)
	}

	ser := s.seriesFor(ProductKey{Platform: snap.Platform, ProductID: snap.ProductID})

	ser.mu.Lock()
	defer ser.mu.Unlock()

	if n := len(ser.snaps); n > 0 && !snap.Timestamp.After(ser.snaps[n-1].Timestamp) {
		return fmt.Errorf("snapshot at %s is not after latest %s: %w",
			snap.Timestamp.Format(time.RFC3339),
			ser.snaps[n-1].Timestamp.Format(time.RFC3339),
			model.ErrInvalidInput)
	}
	ser.snaps = append(ser.snaps, snap)

	if eval != nil {
		eval(windowCopy(ser.snaps, snap.Timestamp, windowDays, 0))
	}

	if s.persistOnAppend && s.path != "" {
		if err := s.Save(); err != nil {
			s.log.Error().Err(err).Msg("persisting history after append")
		}
	}
	return nil
}

// Window returns a copy of the product's trailing window, oldest first.
func (s *MemoryStore) Window(platform model.Platform, productID string, windowDays int, maxSize int) ([]model.ProductSnapshot, error) {
	ser, err := s.lookup(platform, productID)
	if err != nil {
		return nil, err
	}
	ser.mu.Lock()
	defer ser.mu.Unlock()
	if len(ser.snaps) == 0 {
		return nil, fmt.Errorf("no snapshots for %s/%s: %w", platform, productID, model.ErrNotFound)
	}
	latest := ser.snaps[len(ser.snaps)-1].Timestamp
	return windowCopy(ser.snaps, latest, windowDays, maxSize), nil
}

// Latest returns the most recent snapshot for a product.
func (s *MemoryStore) Latest(platform model.Platform, productID string) (model.ProductSnapshot, error) {
	ser, err := s.lookup(platform, productID)
	if err != nil {
		return model.ProductSnapshot{}, err
	}
	ser.mu.Lock()
	defer ser.mu.Unlock()
	if len(ser.snaps) == 0 {
		return model.ProductSnapshot{}, fmt.Errorf("no snapshots for %s/%s: %w",
			platform, productID, model.ErrNotFound)
	}
	return ser.snaps[len(ser.snaps)-1], nil
}

// Products lists tracked product keys in no particular order.
func (s *MemoryStore) Products() []ProductKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]ProductKey, 0, len(s.products))
	for key := range s.products {
		keys = append(keys, key)
	}
	return keys
}

// Prune drops snapshots older than cutoff and forgets emptied products.
func (s *MemoryStore) Prune(cutoff time.Time) int {
	removed := 0
	var emptied []ProductKey

	for _, key := range s.Products() {
		ser := s.seriesFor(key)
		ser.mu.Lock()
		kept := ser.snaps[:0]
		for _, snap := range ser.snaps {
			if snap.Timestamp.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, snap)
		}
		ser.snaps = kept
		empty := len(ser.snaps) == 0
		ser.mu.Unlock()
		if empty {
			emptied = append(emptied, key)
		}
	}

	if len(emptied) > 0 {
		s.mu.Lock()
		for _, key := range emptied {
			delete(s.products, key)
		}
		s.mu.Unlock()
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("pruned history")
	}
	return removed
}

// Save writes the full store to the configured JSON file atomically.
func (s *MemoryStore) Save() error {
	if s.path == "" {
		return nil
	}
	dump := make(map[string][]model.ProductSnapshot)
	for _, key := range s.Products() {
		ser := s.seriesFor(key)
		ser.mu.Lock()
		snaps := make([]model.ProductSnapshot, len(ser.snaps))
		copy(snaps, ser.snaps)
		ser.mu.Unlock()
		dump[string(key.Platform)+"/"+key.ProductID] = snaps
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *MemoryStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dump := make(map[string][]model.ProductSnapshot)
	if err := json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("decoding history file: %w", err)
	}
	for _, snaps := range dump {
		if len(snaps) == 0 {
			continue
		}
		sort.Slice(snaps, func(i, j int) bool {
			return snaps[i].Timestamp.Before(snaps[j].Timestamp)
		})
		key := ProductKey{Platform: snaps[0].Platform, ProductID: snaps[0].ProductID}
		s.products[key] = &series{snaps: snaps}
	}
	return nil
}

func (s *MemoryStore) seriesFor(key ProductKey) *series {
	s.mu.RLock()
	ser, ok := s.products[key]
	s.mu.RUnlock()
	if ok {
		return ser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ser, ok = s.products[key]; ok {
		return ser
	}
	ser = &series{}
	s.products[key] = ser
	return ser
}

func (s *MemoryStore) lookup(platform model.Platform, productID string) (*series, error) {
	s.mu.RLock()
	ser, ok := s.products[ProductKey{Platform: platform, ProductID: productID}]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("product %s/%s not tracked: %w", platform, productID, model.ErrNotFound)
	}
	return ser, nil
}

// windowCopy returns a copy of the snapshots within windowDays of latest,
// oldest first, keeping at most maxSize newest entries. windowDays or
// maxSize of 0 means unbounded. Caller must hold the series lock.
func windowCopy(snaps []model.ProductSnapshot, latest time.Time, windowDays, maxSize int) []model.ProductSnapshot {
	start := 0
	if windowDays > 0 {
		cutoff := latest.AddDate(0, 0, -windowDays)
		for start < len(snaps) && snaps[start].Timestamp.Before(cutoff) {
			start++
		}
	}
	window := snaps[start:]
	if maxSize > 0 && len(window) > maxSize {
		window = window[len(window)-maxSize:]
	}
	out := make([]model.ProductSnapshot, len(window))
	copy(out, window)
	return out
}
