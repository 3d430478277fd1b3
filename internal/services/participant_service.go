package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"github.com/KevinVandy/pointmystory-sub000/internal/models"
	"github.com/KevinVandy/pointmystory-sub000/internal/security"
)

// ParticipantService owns join/leave/promote/type-switch operations, each
// of which interacts with the vote invariants (leaving and switching to
// observer both cascade into vote deletion).
type ParticipantService struct {
	app core.App
}

func NewParticipantService(app core.App) *ParticipantService {
	return &ParticipantService{app: app}
}

// upsertParticipant inserts or refreshes the caller's membership in a
// room. Display fields are re-snapshotted on rejoin, and the role merge is
// monotonic: an existing admin never downgrades, and the room's host is
// promoted on (re)join.
func upsertParticipant(app core.App, room *core.Record, caller *Caller, defaultType models.ParticipantType) (*core.Record, error) {
	name := caller.Name
	if name != "" {
		var err error
		name, err = security.ValidateParticipantName(name)
		if err != nil {
			return nil, err
		}
	}

	callerIsHost := room.GetString("host_id") == caller.UserID

	participant := findParticipantByUser(app, room.Id, caller.UserID)
	if participant != nil {
		if name != "" {
			participant.Set("name", name)
		}
		if caller.AvatarURL != "" {
			participant.Set("avatar_url", caller.AvatarURL)
		}
		participant.Set("role", string(mergeRole(EffectiveRole(participant), callerIsHost)))
	} else {
		collection, err := app.FindCollectionByNameOrId("participants")
		if err != nil {
			return nil, fmt.Errorf("failed to find participants collection: %w", err)
		}

		if name == "" {
			name = "Anonymous"
		}
		role := models.RoleTeam
		if callerIsHost {
			role = models.RoleAdmin
		}

		participant = core.NewRecord(collection)
		participant.Set("room_id", room.Id)
		participant.Set("user_id", caller.UserID)
		participant.Set("name", name)
		participant.Set("avatar_url", caller.AvatarURL)
		participant.Set("role", string(role))
		participant.Set("participant_type", string(defaultType))
		participant.Set("joined_at", types.NowDateTime())
	}

	if err := app.Save(participant); err != nil {
		return nil, fmt.Errorf("failed to save participant: %w", err)
	}
	return participant, nil
}

// mergeRole never downgrades an existing admin.
func mergeRole(existing models.ParticipantRole, callerIsHost bool) models.ParticipantRole {
	if existing == models.RoleAdmin || callerIsHost {
		return models.RoleAdmin
	}
	return existing
}

// Join adds the caller to a room, or refreshes their membership when they
// rejoin.
func (s *ParticipantService) Join(caller *Caller, roomID string, participantType models.ParticipantType) (*core.Record, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if participantType == "" {
		participantType = models.TypeVoter
	}

	var participant *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
		room, err := findRoom(txApp, roomID)
		if err != nil {
			return err
		}

		participant, err = upsertParticipant(txApp, room, caller, participantType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

// Leave removes the caller from a room. Admins are refused: an admin
// abandoning a room would orphan it, so they must close it instead. The
// leaver's votes are deleted in every round they voted in, so a former
// participant's votes vanish from round-history views as well.
func (s *ParticipantService) Leave(caller *Caller, roomID string) error {
	if err := requireAuth(caller); err != nil {
		return err
	}

	return s.app.RunInTransaction(func(txApp core.App) error {
		if _, err := findRoom(txApp, roomID); err != nil {
			return err
		}

		participant := findParticipantByUser(txApp, roomID, caller.UserID)
		if participant == nil {
			return nil
		}
		if EffectiveRole(participant) == models.RoleAdmin {
			return ErrAdminsCannotLeave
		}

		votes, err := findVotesByParticipant(txApp, participant.Id)
		if err != nil {
			return err
		}
		for _, vote := range votes {
			if err := txApp.Delete(vote); err != nil {
				return fmt.Errorf("failed to delete vote: %w", err)
			}
		}

		if err := txApp.Delete(participant); err != nil {
			return fmt.Errorf("failed to delete participant: %w", err)
		}
		return nil
	})
}

// PromoteToAdmin grants admin to another participant of the same room.
// One-way; there is no demotion.
func (s *ParticipantService) PromoteToAdmin(caller *Caller, roomID, participantID string) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		room, err := findRoom(txApp, roomID)
		if err != nil {
			return err
		}
		if _, err := requireAdmin(txApp, caller, room); err != nil {
			return err
		}

		participant, err := findParticipant(txApp, participantID)
		if err != nil {
			return err
		}
		if participant.GetString("room_id") != roomID {
			return fmt.Errorf("%w: participant %s is not in room %s", ErrNotFound, participantID, roomID)
		}

		participant.Set("role", string(models.RoleAdmin))
		return txApp.Save(participant)
	})
}

// UpdateType switches the caller between voter and observer. A switch to
// observer deletes their vote in the current round; historical rounds are
// untouched.
func (s *ParticipantService) UpdateType(caller *Caller, roomID string, newType models.ParticipantType) (*core.Record, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	var participant *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
		room, err := findRoom(txApp, roomID)
		if err != nil {
			return err
		}

		participant = findParticipantByUser(txApp, roomID, caller.UserID)
		if participant == nil {
			return ErrNotJoined
		}

		participant.Set("participant_type", string(newType))
		if err := txApp.Save(participant); err != nil {
			return fmt.Errorf("failed to save participant: %w", err)
		}

		if newType == models.TypeObserver {
			if roundID := room.GetString("current_round_id"); roundID != "" {
				if vote := findVoteByRoundParticipant(txApp, roundID, participant.Id); vote != nil {
					if err := txApp.Delete(vote); err != nil {
						return fmt.Errorf("failed to delete vote: %w", err)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

// ListParticipants returns a room's members for any caller who can view
// the room.
func (s *ParticipantService) ListParticipants(caller *Caller, roomID string) ([]*models.ParticipantView, error) {
	room, err := findRoom(s.app, roomID)
	if err != nil {
		return nil, err
	}
	if !CanView(room, caller.IsAuthenticated()) {
		return nil, ErrPermissionDenied
	}

	participants, err := findRoomParticipants(s.app, roomID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.ParticipantView, 0, len(participants))
	for _, p := range participants {
		views = append(views, models.NewParticipantView(p))
	}
	return views, nil
}
