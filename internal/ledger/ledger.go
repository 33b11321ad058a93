// Package ledger is the durable record of committed bookings: an append-only
// sequence of (date, slot) keys persisted as one JSON array in a single
// key-value slot. Entries are never deleted or expired.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrDuplicate is returned by Book when the key is already recorded.
var ErrDuplicate = errors.New("slot already booked")

// IsDuplicate reports whether err signals a booking collision.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// Key builds the composite booking identity. The date component is an
// explicit ISO date rather than a locale-formatted string, so keys are
// unambiguous regardless of where the ledger file travels.
func Key(date time.Time, slot string) string {
	return date.Format("2006-01-02") + "-" + slot
}

// Ledger holds the booked-slot set in memory and writes through to its
// store on every append. Safe for use from concurrent request handlers.
type Ledger struct {
	store  Store
	logger *slog.Logger

	mu    sync.Mutex
	keys  []string
	index map[string]struct{}
}

func New(store Store, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger,
		index:  map[string]struct{}{},
	}
}

// Load reads the persisted key sequence. A missing slot or a payload that
// does not decode as a JSON string array yields an empty ledger; widget
// startup must never fail on bad persisted state.
func (l *Ledger) Load(ctx context.Context) error {
	raw, exists, err := l.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("ledger load: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.keys = nil
	l.index = map[string]struct{}{}
	if !exists {
		return nil
	}

	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		l.logger.Warn("discarding corrupt booking ledger", "err", err)
		return nil
	}
	for _, k := range keys {
		if _, seen := l.index[k]; seen {
			continue
		}
		l.keys = append(l.keys, k)
		l.index[k] = struct{}{}
	}
	return nil
}

// IsBooked reports whether the (date, slot) pair is already taken.
func (l *Ledger) IsBooked(date time.Time, slot string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[Key(date, slot)]
	return ok
}

// Book appends the key and persists the full sequence before returning.
// A persistence failure rolls the append back and propagates: a booking is
// never acknowledged without a durable write.
func (l *Ledger) Book(ctx context.Context, date time.Time, slot string) error {
	key := Key(date, slot)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.index[key]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicate, key)
	}

	l.keys = append(l.keys, key)
	l.index[key] = struct{}{}

	payload, err := json.Marshal(l.keys)
	if err != nil {
		l.rollbackLocked(key)
		return fmt.Errorf("ledger encode: %w", err)
	}
	if err := l.store.Save(ctx, payload); err != nil {
		l.rollbackLocked(key)
		return fmt.Errorf("ledger persist: %w", err)
	}
	return nil
}

// Keys returns a copy of the recorded booking keys in append order.
func (l *Ledger) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.keys...)
}

func (l *Ledger) rollbackLocked(key string) {
	l.keys = l.keys[:len(l.keys)-1]
	delete(l.index, key)
}
