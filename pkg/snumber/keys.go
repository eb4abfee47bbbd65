package snumber

import "strings"

const (
	KeyBackspace = "Backspace"
	KeyEnter     = "Enter"
)

// KeyAction maps a physical key to a pad action. submit is true for Enter,
// ok is false for keys the pad does not handle.
func KeyAction(key string) (a Action, submit bool, ok bool) {
	switch {
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		return Action{Type: ActionAdd, Digit: int(key[0] - '0')}, false, true
	case key == KeyBackspace:
		return Action{Type: ActionRemove}, false, true
	case key == KeyEnter:
		return Action{}, true, true
	}

	if p := Prefix(strings.ToLower(key)); len(key) == 1 && p.Valid() {
		return Action{Type: ActionSetPrefix, Prefix: p}, false, true
	}

	return Action{}, false, false
}
