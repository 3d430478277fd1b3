package services

import (
	"github.com/pocketbase/pocketbase/core"

	"github.com/KevinVandy/pointmystory-sub000/internal/models"
)

// Pure permission decisions over already-loaded records. The lookup
// wrappers below run before any mutation so authorization failures always
// short-circuit with zero writes.

// EffectiveVisibility defaults an unset visibility to private.
func EffectiveVisibility(room *core.Record) models.Visibility {
	if v := room.GetString("visibility"); v != "" {
		return models.Visibility(v)
	}
	return models.VisibilityPrivate
}

// EffectiveRole defaults a missing participant to team.
func EffectiveRole(participant *core.Record) models.ParticipantRole {
	if participant == nil {
		return models.RoleTeam
	}
	if r := participant.GetString("role"); r != "" {
		return models.ParticipantRole(r)
	}
	return models.RoleTeam
}

// EffectiveParticipantType defaults a missing participant to voter.
func EffectiveParticipantType(participant *core.Record) models.ParticipantType {
	if participant == nil {
		return models.TypeVoter
	}
	if t := participant.GetString("participant_type"); t != "" {
		return models.ParticipantType(t)
	}
	return models.TypeVoter
}

// CanViewWithoutAuth reports whether an anonymous request may read a room.
func CanViewWithoutAuth(room *core.Record) bool {
	return EffectiveVisibility(room) == models.VisibilityPublic
}

// CanView reports whether a request may read a room: public rooms always,
// private rooms only for authenticated callers. Demo capability callers do
// not qualify; their rooms are public anyway.
func CanView(room *core.Record, isAuthenticated bool) bool {
	if CanViewWithoutAuth(room) {
		return true
	}
	return isAuthenticated
}

// IsAdmin reports whether a caller holds admin rights on a room: the host
// always, otherwise any participant whose role is admin.
func IsAdmin(room *core.Record, participant *core.Record, callerIsHost bool) bool {
	if callerIsHost {
		return true
	}
	return EffectiveRole(participant) == models.RoleAdmin
}

func isHost(room *core.Record, caller *Caller) bool {
	return caller != nil && room.GetString("host_id") == caller.UserID
}

// requireAuth fails when the request carries no identity at all. Demo
// capability callers pass: they have a derived subject id.
func requireAuth(caller *Caller) error {
	if caller == nil {
		return ErrAuthRequired
	}
	return nil
}

// requireAdmin loads the caller's participant record and verifies admin
// rights on the room. Returns the participant (nil for a host who never
// joined, which can happen for demo hosts).
func requireAdmin(app core.App, caller *Caller, room *core.Record) (*core.Record, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	participant := findParticipantByUser(app, room.Id, caller.UserID)
	if !IsAdmin(room, participant, isHost(room, caller)) {
		return nil, ErrPermissionDenied
	}
	return participant, nil
}
