package store

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/i474232898/energy-data-aggregation/internal/ledger"
)

// cell is one (date, hour) reading. Each cell carries its own lock so that
// increments to different hours never contend.
type cell struct {
	mu    sync.Mutex
	set   bool
	value float64
}

// dayLedger holds the 24 hour cells of one date.
type dayLedger struct {
	cells [ledger.HoursPerDay]cell
}

// account is a user plus both ledgers.
type account struct {
	user ledger.UserRecord

	// mu guards the date maps; cell values are guarded by their own locks.
	mu   sync.RWMutex
	days map[ledger.Kind]map[string]*dayLedger
}

// MemoryStore is a concurrency-safe in-memory implementation of ledger.Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: email
	users map[string]*account
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*account),
	}
}

// CreateUser registers user, rejecting an existing email.
func (s *MemoryStore) CreateUser(_ context.Context, user ledger.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Email]; ok {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateUser, user.Email)
	}
	s.users[user.Email] = &account{
		user: user,
		days: map[ledger.Kind]map[string]*dayLedger{
			ledger.KindConsumption: {},
			ledger.KindProduction:  {},
		},
	}
	return nil
}

// GetUser returns the user registered under email.
func (s *MemoryStore) GetUser(_ context.Context, email string) (ledger.UserRecord, error) {
	acct, ok := s.account(email)
	if !ok {
		return ledger.UserRecord{}, ledger.ErrUserNotFound
	}
	return acct.user, nil
}

// Increment adds r.Value to its cell, creating the date on first write.
// A sum that leaves the float64 range is rejected and the cell keeps its value.
func (s *MemoryStore) Increment(_ context.Context, r ledger.Reading) error {
	h, ok := ledger.HourIndex(r.Hour)
	if !ok {
		return fmt.Errorf("%w: %q", ledger.ErrInvalidHour, r.Hour)
	}
	acct, ok := s.account(r.Email)
	if !ok {
		return fmt.Errorf("%w: %s", ledger.ErrUnknownUser, r.Email)
	}
	if err := ledger.ValidateKind(r.Kind); err != nil {
		return err
	}

	day := acct.day(r.Kind, r.Date, true)
	c := &day.cells[h]
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.value + r.Value
	if math.IsInf(next, 0) {
		return fmt.Errorf("%w: sum overflows", ledger.ErrInvalidValue)
	}
	c.value = next
	c.set = true
	return nil
}

// LedgerForDate returns the cells written for one date; hours never written
// are absent.
func (s *MemoryStore) LedgerForDate(_ context.Context, kind ledger.Kind, email, date string) (ledger.HourRecord, error) {
	acct, ok := s.account(email)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownUser, email)
	}
	day := acct.day(kind, date, false)
	if day == nil {
		return ledger.HourRecord{}, nil
	}
	return day.record(), nil
}

// Export returns the user document with both ledgers.
func (s *MemoryStore) Export(_ context.Context, email string) (ledger.UserDocument, error) {
	acct, ok := s.account(email)
	if !ok {
		return ledger.UserDocument{}, ledger.ErrUserNotFound
	}

	doc := ledger.UserDocument{
		Name:           acct.user.Name,
		Email:          acct.user.Email,
		PasswordDigest: acct.user.PasswordDigest,
		Consumption:    acct.snapshot(ledger.KindConsumption),
		Production:     acct.snapshot(ledger.KindProduction),
	}
	return doc, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) account(email string) (*account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.users[email]
	return acct, ok
}

func (a *account) day(kind ledger.Kind, date string, create bool) *dayLedger {
	a.mu.RLock()
	day := a.days[kind][date]
	a.mu.RUnlock()
	if day != nil || !create {
		return day
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if day = a.days[kind][date]; day != nil {
		return day
	}
	day = &dayLedger{}
	a.days[kind][date] = day
	return day
}

func (a *account) snapshot(kind ledger.Kind) map[string]ledger.HourRecord {
	a.mu.RLock()
	days := make(map[string]*dayLedger, len(a.days[kind]))
	for d, l := range a.days[kind] {
		days[d] = l
	}
	a.mu.RUnlock()

	out := make(map[string]ledger.HourRecord, len(days))
	for d, l := range days {
		out[d] = l.record()
	}
	return out
}

func (d *dayLedger) record() ledger.HourRecord {
	rec := make(ledger.HourRecord)
	for h := range d.cells {
		c := &d.cells[h]
		c.mu.Lock()
		if c.set {
			rec[ledger.HourLabel(h)] = c.value
		}
		c.mu.Unlock()
	}
	return rec
}
