package services

import "errors"

// Operation preconditions are checked synchronously before any write, so a
// failed operation never leaves partial state. These are surfaced directly
// to the caller; nothing here is retried.
var (
	ErrAuthRequired           = errors.New("authentication required")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrNotFound               = errors.New("not found")
	ErrRoomClosed             = errors.New("room is closed")
	ErrRoundRevealed          = errors.New("round already revealed")
	ErrInvalidVoteValue       = errors.New("vote value not in room's point scale")
	ErrNotJoined              = errors.New("caller has not joined the room")
	ErrObserversCannotVote    = errors.New("observers cannot vote")
	ErrAdminsCannotLeave      = errors.New("admins cannot leave; close the room instead")
	ErrDemoReopenRequiresAuth = errors.New("demo rooms cannot be reopened anonymously")
)
