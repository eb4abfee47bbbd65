// Package snumber implements the on-screen pad used to type a username.
package snumber

import (
	"strconv"
	"sync"

	"github.com/jellehierck/Streeplijst3/pkg/model"
)

type Prefix string

const (
	PrefixStudent  Prefix = "s"
	PrefixEmployee Prefix = "m"
	PrefixExternal Prefix = "x"
)

// Prefixes in the order TOGGLE_PREFIX cycles through them.
var Prefixes = []Prefix{PrefixStudent, PrefixEmployee, PrefixExternal}

func (p Prefix) Valid() bool {
	for _, known := range Prefixes {
		if p == known {
			return true
		}
	}
	return false
}

type Input struct {
	Prefix Prefix `json:"prefix"`
	Number string `json:"number"`
}

var Initial = Input{Prefix: PrefixStudent}

func (in Input) String() string {
	return string(in.Prefix) + in.Number
}

type ActionType string

const (
	ActionAdd          ActionType = "ADD"
	ActionRemove       ActionType = "REMOVE"
	ActionSet          ActionType = "SET"
	ActionClear        ActionType = "CLEAR"
	ActionTogglePrefix ActionType = "TOGGLE_PREFIX"
	ActionSetPrefix    ActionType = "SET_PREFIX"
)

type Action struct {
	Type   ActionType `json:"type"`
	Digit  int        `json:"digit,omitempty"`
	Input  Input      `json:"input,omitempty"`
	Prefix Prefix     `json:"prefix,omitempty"`
}

// Reduce applies a to in. Digits beyond the maximum length and invalid
// prefixes or digits are ignored.
func Reduce(in Input, a Action) Input {
	switch a.Type {
	case ActionAdd:
		if a.Digit < 0 || a.Digit > 9 || len(in.Number) >= model.MaxUsernameDigits {
			return in
		}
		in.Number += strconv.Itoa(a.Digit)

	case ActionRemove:
		if n := len(in.Number); n > 0 {
			in.Number = in.Number[:n-1]
		}

	case ActionSet:
		if !a.Input.Prefix.Valid() || !digitsOnly(a.Input.Number) {
			return in
		}
		in = a.Input
		if len(in.Number) > model.MaxUsernameDigits {
			in.Number = in.Number[:model.MaxUsernameDigits]
		}

	case ActionClear:
		in = Initial

	case ActionTogglePrefix:
		idx := 0
		for i, p := range Prefixes {
			if p == in.Prefix {
				idx = i
			}
		}
		in.Prefix = Prefixes[(idx+1)%len(Prefixes)]

	case ActionSetPrefix:
		if a.Prefix.Valid() {
			in.Prefix = a.Prefix
		}
	}

	return in
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Store holds the pad input of one terminal.
type Store struct {
	mu    sync.Mutex
	input Input
}

func NewStore() *Store {
	return &Store{input: Initial}
}

func (s *Store) Dispatch(a Action) Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = Reduce(s.input, a)
	return s.input
}

func (s *Store) Add(digit int) { s.Dispatch(Action{Type: ActionAdd, Digit: digit}) }

func (s *Store) Remove() { s.Dispatch(Action{Type: ActionRemove}) }

func (s *Store) Set(in Input) { s.Dispatch(Action{Type: ActionSet, Input: in}) }

func (s *Store) Clear() { s.Dispatch(Action{Type: ActionClear}) }

func (s *Store) TogglePrefix() { s.Dispatch(Action{Type: ActionTogglePrefix}) }

func (s *Store) SetPrefix(p Prefix) { s.Dispatch(Action{Type: ActionSetPrefix, Prefix: p}) }

func (s *Store) Input() Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *Store) String() string {
	return s.Input().String()
}
