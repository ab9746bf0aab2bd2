// Package session implements the shared-PIN gate in front of the POS. It is
// a deterrent, not a security boundary: there is no lockout and no attempt
// counting.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type State int

const (
	Loading State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// DefaultTTL is how long a login stays valid
const DefaultTTL = 12 * time.Hour

var (
	ErrIncorrectPIN = errors.New("incorrect PIN")
	ErrMalformedPIN = errors.New("PIN must be 4 digits")
)

// PIN holds a bcrypt hash of a configured PIN
type PIN struct {
	hash []byte
}

func NewPIN(plain string) (*PIN, error) {
	if !wellFormed(plain) {
		return nil, ErrMalformedPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash PIN: %w", err)
	}
	return &PIN{hash: hash}, nil
}

// Check returns nil when entered matches
func (p *PIN) Check(entered string) error {
	if !wellFormed(entered) {
		return ErrMalformedPIN
	}
	if bcrypt.CompareHashAndPassword(p.hash, []byte(entered)) != nil {
		return ErrIncorrectPIN
	}
	return nil
}

func wellFormed(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Gate decides whether a client holding a marker may use the app
type Gate struct {
	pin   *PIN
	codec *Codec
	ttl   time.Duration
	now   func() time.Time
}

type Option func(*Gate)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(g *Gate) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func NewGate(pin *PIN, codec *Codec, opts ...Option) *Gate {
	g := &Gate{pin: pin, codec: codec, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resume runs the startup check. Expired or unreadable markers are cleared
// rather than reused.
func (g *Gate) Resume(store MarkerStore) (State, Marker) {
	raw, ok := store.Load()
	if !ok || raw == "" {
		return Unauthenticated, Marker{}
	}
	m, err := g.codec.Decode(raw)
	if err != nil || !m.Authenticated || g.Expired(m) {
		store.Clear()
		return Unauthenticated, Marker{}
	}
	return Authenticated, m
}

// Expired reports whether the marker is at least ttl old
func (g *Gate) Expired(m Marker) bool {
	return g.now().Sub(m.LoginTime()) >= g.ttl
}

// Login checks pin and, on match, persists a fresh marker
func (g *Gate) Login(store MarkerStore, pin string) (Marker, error) {
	if err := g.pin.Check(pin); err != nil {
		return Marker{}, err
	}
	return g.issue(store)
}

// Keypad returns an empty on-screen pad checked against the login PIN
func (g *Gate) Keypad() *Keypad {
	return NewKeypad(g.pin)
}

// Press enters d on pad and starts a session once the pad accepts the PIN.
// pad must come from g.Keypad.
func (g *Gate) Press(store MarkerStore, pad *Keypad, d byte) (KeypadResult, Marker, error) {
	res := pad.Press(d)
	if res != Accepted {
		return res, Marker{}, nil
	}
	m, err := g.issue(store)
	return res, m, err
}

func (g *Gate) issue(store MarkerStore) (Marker, error) {
	m := Marker{
		Authenticated:  true,
		LoginTimestamp: g.now().UnixMilli(),
		SessionID:      uuid.NewString(),
	}
	raw, err := g.codec.Encode(m)
	if err != nil {
		return Marker{}, fmt.Errorf("encode session marker: %w", err)
	}
	store.Save(raw)
	return m, nil
}

func (g *Gate) Logout(store MarkerStore) {
	store.Clear()
}

// ExpiresAt is when m stops being valid
func (g *Gate) ExpiresAt(m Marker) time.Time {
	return m.LoginTime().Add(g.ttl)
}

// TTL returns the configured session lifetime
func (g *Gate) TTL() time.Duration {
	return g.ttl
}
