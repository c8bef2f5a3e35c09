package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory RuleStore, BookingLedger, UserStore and AccountStore.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*User
	rules    map[string]map[int]AvailabilityRule
	bookings []Booking
	accounts map[string]*CalendarAccount

	nextRuleID        int
	insertErr         error
	listCalls         int
	skipConflictCheck bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*User{},
		rules:    map[string]map[int]AvailabilityRule{},
		accounts: map[string]*CalendarAccount{},
	}
}

func (m *memStore) addUser(id, username string) *User {
	u := &User{ID: id, Username: username, Name: "Test " + username}
	m.users[id] = u
	return u
}

func (m *memStore) GetRule(_ context.Context, userID string, weekDay int) (*AvailabilityRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[userID][weekDay]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) ListRules(_ context.Context, userID string) ([]AvailabilityRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AvailabilityRule
	for _, r := range m.rules[userID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekDay < out[j].WeekDay })
	return out, nil
}

func (m *memStore) InsertRule(_ context.Context, r *AvailabilityRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.rules[r.UserID] == nil {
		m.rules[r.UserID] = map[int]AvailabilityRule{}
	}
	if _, exists := m.rules[r.UserID][r.WeekDay]; exists {
		return nil
	}
	m.nextRuleID++
	r.ID = m.nextRuleID
	m.rules[r.UserID][r.WeekDay] = *r
	return nil
}

func (m *memStore) HasConflict(_ context.Context, userID string, dateHour time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.skipConflictCheck {
		return false, nil
	}
	for _, b := range m.bookings {
		if b.UserID == userID && b.Date.Equal(dateHour) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListBookingsBetween(_ context.Context, userID string, from, to time.Time) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []Booking
	for _, b := range m.bookings {
		if b.UserID == userID && !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// InsertBooking enforces the (user, date) uniqueness the database constraint provides.
func (m *memStore) InsertBooking(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookings {
		if existing.UserID == b.UserID && existing.Date.Equal(b.Date) {
			return &ConflictError{Message: "there is another booking at the same time"}
		}
	}
	b.CreatedAt = time.Now()
	m.bookings = append(m.bookings, *b)
	return nil
}

func (m *memStore) SetExternalEventID(_ context.Context, bookingID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		if m.bookings[i].ID == bookingID {
			m.bookings[i].ExternalEventID = eventID
			return nil
		}
	}
	return errors.New("booking not found")
}

func (m *memStore) countBookings(userID string, date time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.UserID == userID && b.Date.Equal(date) {
			n++
		}
	}
	return n
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, &NotFoundError{Resource: "user", Key: username}
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, &NotFoundError{Resource: "user", Key: id}
}

func (m *memStore) InsertUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return &ConflictError{Message: "username already taken"}
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memStore) GetCalendarAccount(_ context.Context, userID string) (*CalendarAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[userID]
	if !ok {
		return nil, &NotFoundError{Resource: "calendar account", Key: userID}
	}
	copied := *acc
	return &copied, nil
}

func (m *memStore) UpsertCalendarAccount(_ context.Context, acc *CalendarAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *acc
	m.accounts[acc.UserID] = &copied
	return nil
}

type fakeMirror struct {
	calls   int
	err     error
	eventID string
}

func (f *fakeMirror) CreateRemoteEvent(_ context.Context, _ *User, _ *Booking) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.eventID, nil
}

var testLoc = time.FixedZone("BRT", -3*60*60)

func newTestApp(store *memStore, now time.Time) *App {
	return &App{
		Rules:    store,
		Bookings: store,
		Users:    store,
		Accounts: store,
		Mirror:   &fakeMirror{eventID: "evt-1"},
		Tokens:   &TokenIssuer{Secret: []byte("test-secret"), Now: func() time.Time { return now }},
		Location: testLoc,
		Now:      func() time.Time { return now },
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, testLoc)
}

func hoursRange(from, to int) []int {
	out := []int{}
	for h := from; h < to; h++ {
		out = append(out, h)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
