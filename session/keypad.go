package session

import (
	"sync"
	"time"
)

// KeypadIdle is how long an untouched pad is kept by Keypads
const KeypadIdle = 10 * time.Minute

// ErrorDelay is how long a wrong entry stays on screen before the pad clears
const ErrorDelay = 500 * time.Millisecond

type KeypadResult int

const (
	Pending KeypadResult = iota
	Accepted
	Rejected
)

func (r KeypadResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	}
	return "pending"
}

// Keypad is the on-screen PIN entry. It evaluates by itself once four
// digits are in; a wrong entry flags an error and clears after ErrorDelay.
type Keypad struct {
	pin   *PIN
	delay time.Duration
	after func(time.Duration, func()) *time.Timer

	mu      sync.Mutex
	digits  []byte
	errored bool
	gen     int
}

func NewKeypad(pin *PIN) *Keypad {
	return &Keypad{pin: pin, delay: ErrorDelay, after: time.AfterFunc}
}

// Press appends a digit; presses past the fourth are ignored
func (k *Keypad) Press(d byte) KeypadResult {
	if d < '0' || d > '9' {
		return Pending
	}

	k.mu.Lock()
	if len(k.digits) >= 4 {
		k.mu.Unlock()
		return Pending
	}
	k.digits = append(k.digits, d)
	k.errored = false
	if len(k.digits) < 4 {
		k.mu.Unlock()
		return Pending
	}
	entered := string(k.digits)
	k.mu.Unlock()

	if k.pin.Check(entered) == nil {
		return Accepted
	}

	k.mu.Lock()
	k.errored = true
	k.gen++
	gen := k.gen
	k.mu.Unlock()

	k.after(k.delay, func() { k.clearIf(gen) })
	return Rejected
}

func (k *Keypad) clearIf(gen int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.gen == gen {
		k.digits = k.digits[:0]
	}
}

func (k *Keypad) Backspace() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.digits) > 0 {
		k.digits = k.digits[:len(k.digits)-1]
	}
	k.errored = false
}

// Entered returns how many digits are shown and whether the error state is on
func (k *Keypad) Entered() (int, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.digits), k.errored
}

type padEntry struct {
	pad     *Keypad
	touched time.Time
}

// Keypads holds one pad per login screen until it is accepted or idles out
type Keypads struct {
	gate *Gate
	now  func() time.Time

	mu   sync.Mutex
	pads map[string]*padEntry
}

func NewKeypads(gate *Gate) *Keypads {
	return &Keypads{gate: gate, now: time.Now, pads: make(map[string]*padEntry)}
}

// For returns the pad for screen id, creating it on first use
func (k *Keypads) For(id string) *Keypad {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	for key, e := range k.pads {
		if now.Sub(e.touched) >= KeypadIdle {
			delete(k.pads, key)
		}
	}
	e, ok := k.pads[id]
	if !ok {
		e = &padEntry{pad: k.gate.Keypad()}
		k.pads[id] = e
	}
	e.touched = now
	return e.pad
}

func (k *Keypads) Drop(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.pads, id)
}

func (k *Keypads) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.pads)
}
