package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"restoflow-api/models"
)

// Direction tells whether a transition moves an order forward or back
type Direction string

const (
	Advance Direction = "advance"
	Revert  Direction = "revert"
)

// ErrUnknownStatus is returned for values outside the lifecycle
var ErrUnknownStatus = errors.New("unknown order status")

// Transition defines one edge of the kitchen lifecycle
type Transition struct {
	From      models.OrderStatus `json:"from"`
	To        models.OrderStatus `json:"to"`
	Direction Direction          `json:"direction"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Kitchen finishes cooking
	{From: models.StatusProcessing, To: models.StatusReady, Direction: Advance},
	// Customer picked it up
	{From: models.StatusReady, To: models.StatusDone, Direction: Advance},
	// Undo buttons on the board
	{From: models.StatusReady, To: models.StatusProcessing, Direction: Revert},
	{From: models.StatusDone, To: models.StatusReady, Direction: Revert},
}

type transitionKey struct {
	From      models.OrderStatus
	Direction Direction
}

var transitionMap = func() map[transitionKey]models.OrderStatus {
	m := make(map[transitionKey]models.OrderStatus)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.Direction}] = t.To
	}
	return m
}()

// Next returns the successor of status; ok is false for Done
func Next(status models.OrderStatus) (models.OrderStatus, bool) {
	to, ok := transitionMap[transitionKey{status, Advance}]
	return to, ok
}

// Prev returns the predecessor of status; ok is false for Processing
func Prev(status models.OrderStatus) (models.OrderStatus, bool) {
	to, ok := transitionMap[transitionKey{status, Revert}]
	return to, ok
}

// Step moves status one edge in the given direction
func Step(status models.OrderStatus, dir Direction) (models.OrderStatus, bool) {
	if dir == Revert {
		return Prev(status)
	}
	return Next(status)
}

// Parse validates a raw status value. Direct writes are not restricted to
// adjacent states, so any known bucket is accepted.
func Parse(raw string) (models.OrderStatus, error) {
	s := models.OrderStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: '%s'. Valid statuses are: %s", ErrUnknownStatus, raw, describeAll())
	}
	return s, nil
}

// ValidTransitionsFrom returns all adjacent states reachable from status
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

func describeAll() string {
	names := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
