package model

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

var AllStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusCancelled,
	StatusRefunded,
}

// Actor is whoever drives a transition.
type Actor string

const (
	ActorSystem Actor = "system"
	ActorOwner  Actor = "owner"
	ActorAdmin  Actor = "admin"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrActorNotAllowed   = errors.New("actor may not perform this transition")
)

// PaidStatus is where a successfully verified payment moves an order.
const PaidStatus = StatusProcessing

// transitions lists every legal (from, to) pair and the actors allowed to drive it.
var transitions = map[Status]map[Status][]Actor{
	StatusPending: {
		StatusProcessing: {ActorSystem, ActorAdmin},
		StatusCancelled:  {ActorOwner, ActorAdmin},
	},
	StatusProcessing: {
		StatusCompleted: {ActorAdmin},
	},
	StatusCompleted: {
		StatusCancelled: {ActorOwner, ActorAdmin},
		StatusRefunded:  {ActorAdmin},
	},
}

type TransitionError struct {
	From  Status
	To    Status
	Actor Actor
	Err   error
}

func (e *TransitionError) Error() string {
	if errors.Is(e.Err, ErrActorNotAllowed) {
		return fmt.Sprintf("%s may not move order from %s to %s", e.Actor, e.From, e.To)
	}
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsLegal reports whether from → to appears in the transition table.
func IsLegal(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// CanTransition returns a *TransitionError wrapping ErrIllegalTransition for pairs
// outside the table, or ErrActorNotAllowed when the pair exists but actor may not drive it.
func CanTransition(from, to Status, actor Actor) error {
	actors, ok := transitions[from][to]
	if !ok {
		return &TransitionError{From: from, To: to, Actor: actor, Err: ErrIllegalTransition}
	}
	for _, a := range actors {
		if a == actor {
			return nil
		}
	}
	return &TransitionError{From: from, To: to, Actor: actor, Err: ErrActorNotAllowed}
}
