package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newGate(t *testing.T, c *clock) *Gate {
	t.Helper()
	pin, err := NewPIN("9999")
	require.NoError(t, err)
	return NewGate(pin, NewCodec("test-secret"), WithClock(c.now))
}

func TestResumeWithoutMarker(t *testing.T) {
	g := newGate(t, &clock{t: time.Now()})
	state, _ := g.Resume(&MemoryStore{})
	assert.Equal(t, Unauthenticated, state)
}

func TestLoginPersistsMarker(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
	g := newGate(t, c)
	store := &MemoryStore{}

	m, err := g.Login(store, "9999")
	require.NoError(t, err)
	assert.True(t, m.Authenticated)
	assert.Equal(t, c.t.UnixMilli(), m.LoginTimestamp)
	assert.NotEmpty(t, m.SessionID)

	c.t = c.t.Add(11*time.Hour + 59*time.Minute)
	state, resumed := g.Resume(store)
	assert.Equal(t, Authenticated, state)
	assert.Equal(t, m, resumed)
	assert.Equal(t, time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC), g.ExpiresAt(m).UTC())
}

func TestExpiredMarkerIsClearedNotReused(t *testing.T) {
	c := &clock{t: time.Now()}
	g := newGate(t, c)
	store := &MemoryStore{}
	_, err := g.Login(store, "9999")
	require.NoError(t, err)

	c.t = c.t.Add(12 * time.Hour)
	state, _ := g.Resume(store)
	assert.Equal(t, Unauthenticated, state)

	_, ok := store.Load()
	assert.False(t, ok, "expired marker must be removed")
}

func TestWrongPINLeavesStoreEmpty(t *testing.T) {
	g := newGate(t, &clock{t: time.Now()})
	store := &MemoryStore{}

	_, err := g.Login(store, "1234")
	assert.ErrorIs(t, err, ErrIncorrectPIN)
	_, err = g.Login(store, "99")
	assert.ErrorIs(t, err, ErrMalformedPIN)

	_, ok := store.Load()
	assert.False(t, ok)
}

func TestForgedMarkerIsRejected(t *testing.T) {
	c := &clock{t: time.Now()}
	g := newGate(t, c)

	forged, err := NewCodec("other-secret").Encode(Marker{Authenticated: true, LoginTimestamp: c.t.UnixMilli()})
	require.NoError(t, err)
	store := &MemoryStore{}
	store.Save(forged)

	state, _ := g.Resume(store)
	assert.Equal(t, Unauthenticated, state)
	_, ok := store.Load()
	assert.False(t, ok)

	store.Save("garbage")
	state, _ = g.Resume(store)
	assert.Equal(t, Unauthenticated, state)
}

func TestLogout(t *testing.T) {
	g := newGate(t, &clock{t: time.Now()})
	store := &MemoryStore{}
	_, err := g.Login(store, "9999")
	require.NoError(t, err)

	g.Logout(store)
	state, _ := g.Resume(store)
	assert.Equal(t, Unauthenticated, state)
}

func TestNewPINRejectsMalformed(t *testing.T) {
	_, err := NewPIN("12345")
	assert.ErrorIs(t, err, ErrMalformedPIN)
	assert.Equal(t, "authenticated", Authenticated.String())
}

func TestKeypadAutoEvaluates(t *testing.T) {
	pin, err := NewPIN("9999")
	require.NoError(t, err)

	var pending func()
	k := NewKeypad(pin)
	k.after = func(d time.Duration, f func()) *time.Timer {
		assert.Equal(t, ErrorDelay, d)
		pending = f
		return nil
	}

	for _, d := range []byte("123") {
		assert.Equal(t, Pending, k.Press(d))
	}
	assert.Equal(t, Rejected, k.Press('4'))

	n, errored := k.Entered()
	assert.Equal(t, 4, n)
	assert.True(t, errored)
	assert.Equal(t, Pending, k.Press('5'), "full pad ignores presses")

	require.NotNil(t, pending)
	pending()
	n, _ = k.Entered()
	assert.Zero(t, n, "pad clears after the error delay")

	for _, d := range []byte("999") {
		k.Press(d)
	}
	assert.Equal(t, Accepted, k.Press('9'))
}

func TestKeypadBackspace(t *testing.T) {
	pin, err := NewPIN("9999")
	require.NoError(t, err)
	k := NewKeypad(pin)

	k.Press('1')
	k.Press('2')
	k.Backspace()
	n, errored := k.Entered()
	assert.Equal(t, 1, n)
	assert.False(t, errored)
	assert.Equal(t, Pending, k.Press('x'))
}

func TestGatePressStartsSession(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
	g := newGate(t, c)
	store := &MemoryStore{}
	pad := g.Keypad()

	for _, d := range []byte("999") {
		res, _, err := g.Press(store, pad, d)
		require.NoError(t, err)
		assert.Equal(t, Pending, res)
	}
	_, ok := store.Load()
	assert.False(t, ok)

	res, m, err := g.Press(store, pad, '9')
	require.NoError(t, err)
	assert.Equal(t, Accepted, res)
	assert.Equal(t, "accepted", res.String())
	assert.Equal(t, c.t.UnixMilli(), m.LoginTimestamp)

	state, _ := g.Resume(store)
	assert.Equal(t, Authenticated, state)
}

func TestKeypadsDropIdlePads(t *testing.T) {
	c := &clock{t: time.Now()}
	pads := NewKeypads(newGate(t, c))
	pads.now = c.now

	a := pads.For("screen-a")
	assert.Same(t, a, pads.For("screen-a"))
	pads.For("screen-b")
	assert.Equal(t, 2, pads.Len())

	c.t = c.t.Add(KeypadIdle)
	assert.NotSame(t, a, pads.For("screen-a"), "idle pad is replaced")
	assert.Equal(t, 1, pads.Len())

	pads.Drop("screen-a")
	assert.Zero(t, pads.Len())
}
