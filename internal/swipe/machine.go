// Package swipe converts raw drag gestures on product cards into discrete
// like/dislike/save events. It is the client-resident front of the
// personalization pipeline: each resolved gesture is reported exactly once
// through an EventSink (the service boundary) before the deck advances.
package swipe

import (
	"errors"
)

type State int

const (
	// StateIdle: a card is visible and no gesture is active.
	StateIdle State = iota
	// StateDragging: the pointer is captured and a live offset is tracked.
	StateDragging
	// StateExhausted: the index reached the end of the deck. Terminal.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

type Outcome string

const (
	OutcomeLike    Outcome = "like"
	OutcomeDislike Outcome = "dislike"
	OutcomeSave    Outcome = "save"
	OutcomeReset   Outcome = "reset"
)

// Card is the slice of product data a gesture event carries to the ledger.
type Card struct {
	ProductID   string
	Name        string
	Description string
}

// Event is one resolved, non-reset gesture. A save event also counts as a
// like downstream; the sink receives it once, as a save.
type Event struct {
	Card   Card
	Action string
}

// EventSink receives each resolved gesture exactly once.
type EventSink interface {
	Report(Event) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event) error

func (f SinkFunc) Report(e Event) error { return f(e) }

type Point struct {
	X float64
	Y float64
}

// Thresholds gate gesture resolution: a direction wins only when both its
// distance and its velocity minimum are exceeded.
type Thresholds struct {
	Distance         float64
	Velocity         float64
	VerticalDistance float64
	VerticalVelocity float64
}

// DefaultThresholds matches the reference card UI: 100px travel at 0.5 px/ms.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Distance:         100,
		Velocity:         0.5,
		VerticalDistance: 100,
		VerticalVelocity: 0.5,
	}
}

var (
	ErrNoActiveCard   = errors.New("swipe: no active card")
	ErrNotDragging    = errors.New("swipe: no drag in progress")
	ErrAlreadyDragged = errors.New("swipe: drag already in progress")
)

// Machine is the gesture state machine over a loaded deck of cards. It is
// not safe for concurrent use; gestures are inherently serial.
type Machine struct {
	thresholds Thresholds
	cards      []Card
	sink       EventSink

	state  State
	index  int
	offset Point
}

func NewMachine(cards []Card, sink EventSink, thresholds Thresholds) *Machine {
	m := &Machine{
		thresholds: thresholds,
		cards:      cards,
		sink:       sink,
		state:      StateIdle,
	}
	if len(cards) == 0 {
		m.state = StateExhausted
	}
	return m
}

func (m *Machine) State() State { return m.state }

// Current returns the card under the pointer, if any.
func (m *Machine) Current() (Card, bool) {
	if m.index >= len(m.cards) {
		return Card{}, false
	}
	return m.cards[m.index], true
}

// Remaining counts cards not yet resolved, including the current one.
func (m *Machine) Remaining() int {
	if m.index >= len(m.cards) {
		return 0
	}
	return len(m.cards) - m.index
}

func (m *Machine) Index() int { return m.index }

// Begin captures the pointer on the current card.
func (m *Machine) Begin() error {
	switch m.state {
	case StateExhausted:
		return ErrNoActiveCard
	case StateDragging:
		return ErrAlreadyDragged
	}
	m.state = StateDragging
	m.offset = Point{}
	return nil
}

// Drag tracks the live offset while the pointer is captured.
func (m *Machine) Drag(offset Point) error {
	if m.state != StateDragging {
		return ErrNotDragging
	}
	m.offset = offset
	return nil
}

// Offset is the live drag offset, meaningful only while dragging.
func (m *Machine) Offset() Point { return m.offset }

// Release resolves the gesture from the final offset and velocity.
// Horizontal thresholds are checked before vertical ones; anything below
// threshold resolves to reset and the card returns to center. A non-reset
// outcome is reported exactly once, then the index advances by one — the
// machine never re-emits for the same card and never moves backward.
func (m *Machine) Release(offset, velocity Point) (Outcome, error) {
	if m.state != StateDragging {
		return OutcomeReset, ErrNotDragging
	}

	outcome := m.resolve(offset, velocity)
	if outcome == OutcomeReset {
		m.state = StateIdle
		m.offset = Point{}
		return OutcomeReset, nil
	}

	card := m.cards[m.index]
	var sinkErr error
	if m.sink != nil {
		sinkErr = m.sink.Report(Event{Card: card, Action: string(outcome)})
	}

	// Advance regardless of sink delivery: retrying would risk duplicate
	// events, and a lost interaction is a low-confidence state, not a fault.
	m.index++
	m.offset = Point{}
	if m.index >= len(m.cards) {
		m.state = StateExhausted
	} else {
		m.state = StateIdle
	}
	return outcome, sinkErr
}

func (m *Machine) resolve(offset, velocity Point) Outcome {
	t := m.thresholds
	switch {
	case offset.X > t.Distance && velocity.X > t.Velocity:
		return OutcomeLike
	case offset.X < -t.Distance && velocity.X < -t.Velocity:
		return OutcomeDislike
	case offset.Y < -t.VerticalDistance && velocity.Y < -t.VerticalVelocity:
		return OutcomeSave
	default:
		return OutcomeReset
	}
}
