package reservation

import (
	"fmt"
	"strings"

	"github.com/go-wishlist-api/internal/domain"
)

// Decision is what the caller asked for. Toggle flips the reserver's current
// state and is what an absent action field means.
type Decision string

const (
	DecisionToggle  Decision = ""
	DecisionReserve Decision = "reserve"
	DecisionCancel  Decision = "cancel"
)

// Intent is a resolved Decision.
type Intent int

const (
	IntentReserve Intent = iota + 1
	IntentCancel
)

func (i Intent) String() string {
	switch i {
	case IntentReserve:
		return "reserve"
	case IntentCancel:
		return "cancel"
	}
	return "unknown"
}

// ParseDecision accepts "", "toggle", "reserve" and "cancel".
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "toggle":
		return DecisionToggle, nil
	case "reserve":
		return DecisionReserve, nil
	case "cancel":
		return DecisionCancel, nil
	}
	return "", fmt.Errorf("unknown reservation action %q: %w", s, domain.ErrBadRequest)
}

// Resolve turns the decision into a concrete intent given whether the
// reserver currently holds an active reservation.
func (d Decision) Resolve(active bool) Intent {
	switch d {
	case DecisionReserve:
		return IntentReserve
	case DecisionCancel:
		return IntentCancel
	}
	if active {
		return IntentCancel
	}
	return IntentReserve
}
