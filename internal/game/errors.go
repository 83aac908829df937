package game

import "errors"

// ErrorKind classifies a user-facing failure.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindInvalidState      ErrorKind = "invalid_state"
	KindResourceExhausted ErrorKind = "resource_exhausted"
	KindConflict          ErrorKind = "conflict"
	KindValidation        ErrorKind = "validation_error"
)

// Error is a typed, user-facing engine error. Two Errors match under
// errors.Is when their codes are equal.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrSessionNotFound = newError(KindNotFound, "session_not_found", "session not found")
	ErrPlayerNotFound  = newError(KindNotFound, "player_not_found", "player not found")
	ErrZoneNotFound    = newError(KindNotFound, "zone_not_found", "zone not found")
	ErrActionNotFound  = newError(KindNotFound, "action_not_found", "zone action not found")
	ErrEventNotFound   = newError(KindNotFound, "event_not_found", "event not found")
	ErrOptionNotFound  = newError(KindNotFound, "option_not_found", "option not found")
	ErrItemNotFound    = newError(KindNotFound, "item_not_found", "item not found")

	ErrSessionEnded        = newError(KindInvalidState, "session_ended", "session has ended")
	ErrSessionNotActive    = newError(KindInvalidState, "session_not_active", "session is not active")
	ErrSessionNotLobby     = newError(KindInvalidState, "session_not_lobby", "session has already started")
	ErrSessionNotPaused    = newError(KindInvalidState, "session_not_paused", "session is not paused")
	ErrNoActiveEvent       = newError(KindInvalidState, "no_active_event", "no active event")
	ErrEventInProgress     = newError(KindInvalidState, "event_in_progress", "an event is already in progress")
	ErrRequirementNotMet   = newError(KindInvalidState, "requirement_not_met", "requirement not met")
	ErrBattlePending       = newError(KindInvalidState, "battle_pending", "a battle is pending")
	ErrNoPendingBattle     = newError(KindInvalidState, "no_pending_battle", "no battle is pending")
	ErrNoPendingTransition = newError(KindInvalidState, "no_pending_transition", "no scene transition is pending")
	ErrPlayerBusy          = newError(KindInvalidState, "player_busy", "player is already performing an action")
	ErrPlayerMoving        = newError(KindInvalidState, "player_moving", "player is already moving")
	ErrNotAtBase           = newError(KindInvalidState, "not_at_base", "player is not at the bunker")
	ErrNoTrader            = newError(KindInvalidState, "no_trader", "no trader today")

	ErrNoChargesLeft         = newError(KindResourceExhausted, "no_charges_left", "no charges left today")
	ErrInsufficientStamina   = newError(KindResourceExhausted, "insufficient_stamina", "not enough stamina")
	ErrInsufficientResources = newError(KindResourceExhausted, "insufficient_resources", "not enough resources")
	ErrInsufficientItems     = newError(KindResourceExhausted, "insufficient_items", "not enough items")
	ErrOutOfStock            = newError(KindResourceExhausted, "out_of_stock", "trader is out of stock")

	ErrZoneActionBusy = newError(KindConflict, "zone_action_busy", "zone action is held by another player")
	ErrStaleVersion   = newError(KindConflict, "stale_version", "stale version")

	ErrInvalidZoneID   = newError(KindValidation, "invalid_zone_id", "invalid zone id")
	ErrInvalidTarget   = newError(KindValidation, "invalid_target", "invalid target hex")
	ErrInvalidQuantity = newError(KindValidation, "invalid_quantity", "quantity must be positive")
	ErrInvalidRole     = newError(KindValidation, "invalid_role", "invalid role")
	ErrInvalidRequest  = newError(KindValidation, "invalid_request", "invalid request")
)

// AsError returns the typed error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
