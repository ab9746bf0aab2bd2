package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Marker is the client-held record of a login
type Marker struct {
	Authenticated  bool   `json:"authenticated"`
	LoginTimestamp int64  `json:"login_ts"` // epoch milliseconds
	SessionID      string `json:"sid"`
}

// LoginTime converts the stored timestamp
func (m Marker) LoginTime() time.Time {
	return time.UnixMilli(m.LoginTimestamp)
}

type markerClaims struct {
	Marker
	jwt.RegisteredClaims
}

var ErrBadMarker = errors.New("session marker is malformed or forged")

// Codec signs markers so a client cannot mint its own. Expiry is judged by
// the gate from login_ts, not by token claims.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) Encode(m Marker) (string, error) {
	claims := markerClaims{
		Marker: m,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(m.LoginTime()),
			Subject:  m.SessionID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

func (c *Codec) Decode(raw string) (Marker, error) {
	claims := &markerClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Marker{}, fmt.Errorf("%w: %v", ErrBadMarker, err)
	}
	return claims.Marker, nil
}

// MarkerStore is the client-side key-value slot holding the encoded marker
type MarkerStore interface {
	Load() (string, bool)
	Save(raw string)
	Clear()
}

// MemoryStore keeps the marker in process, for embedded clients and tests
type MemoryStore struct {
	mu  sync.Mutex
	raw string
	ok  bool
}

func (s *MemoryStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw, s.ok
}

func (s *MemoryStore) Save(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw, s.ok = raw, true
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw, s.ok = "", false
}
