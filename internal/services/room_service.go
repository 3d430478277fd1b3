package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"github.com/KevinVandy/pointmystory-sub000/internal/config"
	"github.com/KevinVandy/pointmystory-sub000/internal/models"
	"github.com/KevinVandy/pointmystory-sub000/internal/scale"
	"github.com/KevinVandy/pointmystory-sub000/internal/security"
)

// RoomService owns room lifecycle: creation, settings, open/close/reopen
// transitions, timers, and demo-room provisioning with scheduled
// auto-close.
type RoomService struct {
	app       core.App
	scheduler Scheduler
	onChange  func(roomID, event string)
}

func NewRoomService(app core.App, scheduler Scheduler) *RoomService {
	return &RoomService{
		app:       app,
		scheduler: scheduler,
	}
}

// OnChange registers a hook invoked after system-initiated mutations
// (demo auto-close) so the push layer can notify subscribers.
func (s *RoomService) OnChange(fn func(roomID, event string)) {
	s.onChange = fn
}

// CreateRoomParams are the caller-supplied fields for a new room. Zero
// values fall back to defaults (private, fibonacci, 180s timer).
type CreateRoomParams struct {
	Name                 string
	Visibility           models.Visibility
	PointScalePreset     string
	CustomScale          []string
	TimerDurationSeconds int
	OrganizationID       string
}

// Create builds a room with its resolved point scale and first round, and
// auto-joins the creator as an admin voter.
func (s *RoomService) Create(caller *Caller, params CreateRoomParams) (*core.Record, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	name, err := security.ValidateRoomName(params.Name)
	if err != nil {
		return nil, err
	}

	preset := params.PointScalePreset
	if preset == "" {
		preset = config.DefaultPointScalePreset
	}
	tokens := scale.ScaleFor(preset, params.CustomScale)
	if preset == scale.PresetCustom && len(params.CustomScale) == 0 {
		preset = config.DefaultPointScalePreset
	}

	visibility := params.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}

	var room *core.Record
	err = s.app.RunInTransaction(func(txApp core.App) error {
		collection, err := txApp.FindCollectionByNameOrId("rooms")
		if err != nil {
			return fmt.Errorf("failed to find rooms collection: %w", err)
		}

		room = core.NewRecord(collection)
		room.Set("name", name)
		room.Set("host_id", caller.UserID)
		room.Set("visibility", string(visibility))
		room.Set("point_scale_preset", preset)
		room.Set("point_scale", tokens)
		room.Set("timer_duration_seconds", clampTimerDuration(params.TimerDurationSeconds))
		room.Set("auto_start_timer", false)
		room.Set("auto_reveal_votes", true)
		room.Set("status", string(models.RoomStatusOpen))
		room.Set("organization_id", params.OrganizationID)

		if err := txApp.Save(room); err != nil {
			return fmt.Errorf("failed to save room record: %w", err)
		}

		round, err := createRound(txApp, room.Id, "", "")
		if err != nil {
			return fmt.Errorf("failed to create initial round: %w", err)
		}

		room.Set("current_round_id", round.Id)
		if err := txApp.Save(room); err != nil {
			return fmt.Errorf("failed to update room with round: %w", err)
		}

		_, err = upsertParticipant(txApp, room, caller, models.TypeVoter)
		return err
	})
	if err != nil {
		return nil, err
	}

	return room, nil
}

// RoomAccess discriminates the tri-state read result so callers can render
// "doesn't exist" and "exists but forbidden" differently without catching
// errors.
type RoomAccess string

const (
	RoomAccessOK       RoomAccess = "ok"
	RoomAccessNotFound RoomAccess = "not_found"
	RoomAccessDenied   RoomAccess = "access_denied"
)

type GetRoomResult struct {
	Access RoomAccess
	Room   *core.Record
}

// Get returns the room behind a tri-state result; it never fails for
// missing or forbidden rooms.
func (s *RoomService) Get(caller *Caller, roomID string) *GetRoomResult {
	room, err := findRoom(s.app, roomID)
	if err != nil {
		return &GetRoomResult{Access: RoomAccessNotFound}
	}
	if !CanView(room, caller.IsAuthenticated()) {
		return &GetRoomResult{Access: RoomAccessDenied}
	}
	return &GetRoomResult{Access: RoomAccessOK, Room: room}
}

// FindCallerParticipant returns the caller's participant record in the
// room, or nil when the caller is anonymous or hasn't joined.
func (s *RoomService) FindCallerParticipant(caller *Caller, roomID string) *core.Record {
	if caller == nil {
		return nil
	}
	return findParticipantByUser(s.app, roomID, caller.UserID)
}

// UpdateSettingsParams carries a partial settings patch; nil fields are
// left untouched.
type UpdateSettingsParams struct {
	Name                 *string
	Visibility           *models.Visibility
	PointScalePreset     *string
	PointScale           []string
	TimerDurationSeconds *int
	AutoStartTimer       *bool
	AutoRevealVotes      *bool
}

// UpdateSettings patches room settings, recomputing the point scale when
// the preset changes. Supplying only a scale without a preset implicitly
// switches the room to the custom preset.
func (s *RoomService) UpdateSettings(caller *Caller, roomID string, params UpdateSettingsParams) (*core.Record, error) {
	var room *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		room, err = findRoom(txApp, roomID)
		if err != nil {
			return err
		}
		if _, err := requireAdmin(txApp, caller, room); err != nil {
			return err
		}

		if params.Name != nil {
			name, err := security.ValidateRoomName(*params.Name)
			if err != nil {
				return err
			}
			room.Set("name", name)
		}
		if params.Visibility != nil {
			room.Set("visibility", string(*params.Visibility))
		}

		switch {
		case params.PointScalePreset != nil:
			preset := *params.PointScalePreset
			if preset == scale.PresetCustom && len(params.PointScale) == 0 {
				preset = config.DefaultPointScalePreset
			}
			room.Set("point_scale_preset", preset)
			room.Set("point_scale", scale.ScaleFor(preset, params.PointScale))
		case params.PointScale != nil:
			room.Set("point_scale_preset", scale.PresetCustom)
			room.Set("point_scale", params.PointScale)
		}

		if params.TimerDurationSeconds != nil {
			room.Set("timer_duration_seconds", clampTimerDuration(*params.TimerDurationSeconds))
		}
		if params.AutoStartTimer != nil {
			room.Set("auto_start_timer", *params.AutoStartTimer)
		}
		if params.AutoRevealVotes != nil {
			room.Set("auto_reveal_votes", *params.AutoRevealVotes)
		}

		return txApp.Save(room)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// UpdateStory replaces the room's current story label.
func (s *RoomService) UpdateStory(caller *Caller, roomID, story string) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		room, err := findRoom(txApp, roomID)
		if err != nil {
			return err
		}
		if _, err := requireAdmin(txApp, caller, room); err != nil {
			return err
		}

		story, err := security.ValidateStory(story)
		if err != nil {
			return err
		}

		room.Set("current_story", story)
		return txApp.Save(room)
	})
}

// StartTimer arms the room's countdown from its configured duration.
func (s *RoomService) StartTimer(caller *Caller, roomID string) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		room, err := findRoom(txApp, roomID)
		if err != nil {
			return err
		}
		if _, err := requireAdmin(txApp, caller, room); err != nil {
			return err
		}
		if room.GetString("status") == string(models.RoomStatusClosed) {
			return ErrRoomClosed
		}

		now := types.NowDateTime()
		room.Set("timer_started_at", now)
		room.Set("timer_ends_at", now.Add(timerDuration(room)))
		return txApp.Save(room)
	})
}

// StopTimer clears the countdown.
func (s *RoomService) StopTimer(caller *Caller, roomID string) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		room, err := findRoom(txApp, roomID)
		if err != nil {
			return err
		}
		if _, err := requireAdmin(txApp, caller, room); err != nil {
			return err
		}

		clearTimer(room)
		return txApp.Save(room)
	})
}

// Close marks the room closed. Closed rooms stay readable but reject all
// vote/reveal/new-round/timer mutations.
func (s *RoomService) Close(caller *Caller, roomID string) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		room, err := findRoom(txApp, roomID)
		if err != nil {
			return err
		}
		if _, err := requireAdmin(txApp, caller, room); err != nil {
			return err
		}

		room.Set("status", string(models.RoomStatusClosed))
		return txApp.Save(room)
	})
}

// Reopen reverses a close. Demo rooms cannot be resurrected anonymously:
// the scheduled auto-close must stay final for anyone without a real
// account.
func (s *RoomService) Reopen(caller *Caller, roomID string) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		room, err := findRoom(txApp, roomID)
		if err != nil {
			return err
		}
		if _, err := requireAdmin(txApp, caller, room); err != nil {
			return err
		}
		if room.GetBool("is_demo") && (caller == nil || !caller.Authenticated) {
			return ErrDemoReopenRequiresAuth
		}

		room.Set("status", string(models.RoomStatusOpen))
		clearTimer(room)
		return txApp.Save(room)
	})
}

// CreateDemo provisions an anonymous, public, time-boxed room. The
// returned session id is an opaque bearer capability: whoever holds it is
// structurally the room's host. An auto-close job is scheduled for the
// demo lifetime.
func (s *RoomService) CreateDemo() (*core.Record, string, error) {
	sessionID := uuid.NewString()

	var room *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
		collection, err := txApp.FindCollectionByNameOrId("rooms")
		if err != nil {
			return fmt.Errorf("failed to find rooms collection: %w", err)
		}

		room = core.NewRecord(collection)
		room.Set("name", "Demo Room")
		room.Set("host_id", DemoSubject(sessionID))
		room.Set("visibility", string(models.VisibilityPublic))
		room.Set("point_scale_preset", config.DefaultPointScalePreset)
		room.Set("point_scale", scale.ScaleFor(config.DefaultPointScalePreset, nil))
		room.Set("timer_duration_seconds", config.DefaultTimerDurationSeconds)
		room.Set("auto_start_timer", false)
		room.Set("auto_reveal_votes", true)
		room.Set("status", string(models.RoomStatusOpen))
		room.Set("is_demo", true)
		room.Set("demo_session_id", sessionID)
		room.Set("auto_close_at", types.NowDateTime().Add(config.DemoRoomLifetime))

		if err := txApp.Save(room); err != nil {
			return fmt.Errorf("failed to save demo room: %w", err)
		}

		round, err := createRound(txApp, room.Id, "", "")
		if err != nil {
			return fmt.Errorf("failed to create initial round: %w", err)
		}

		room.Set("current_round_id", round.Id)
		if err := txApp.Save(room); err != nil {
			return fmt.Errorf("failed to update demo room with round: %w", err)
		}

		host := &Caller{UserID: DemoSubject(sessionID), Name: "Demo Host"}
		_, err = upsertParticipant(txApp, room, host, models.TypeVoter)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	roomID := room.Id
	s.scheduler.After(config.DemoRoomLifetime, func() {
		if err := s.AutoCloseDemo(roomID); err != nil {
			s.app.Logger().Error("demo auto-close failed", "roomId", roomID, "error", err)
		}
	})

	return room, sessionID, nil
}

// AutoCloseDemo is the deferred demo shutdown. It no-ops when the room is
// gone, already closed, or not a demo room; the job may fire long after
// the room was closed or deleted by hand.
func (s *RoomService) AutoCloseDemo(roomID string) error {
	closed := false
	err := s.app.RunInTransaction(func(txApp core.App) error {
		room, err := txApp.FindRecordById("rooms", roomID)
		if err != nil {
			return nil
		}
		if !room.GetBool("is_demo") {
			return nil
		}
		if room.GetString("status") == string(models.RoomStatusClosed) {
			return nil
		}

		room.Set("status", string(models.RoomStatusClosed))
		if err := txApp.Save(room); err != nil {
			return err
		}
		closed = true
		return nil
	})
	if err != nil {
		return err
	}

	if closed && s.onChange != nil {
		s.onChange(roomID, models.MsgTypeRoomClosed)
	}
	return nil
}

// CloseOverdueDemoRooms is the cron sweep backing up the in-process
// scheduler: after a restart, timers are gone but auto_close_at persists.
func (s *RoomService) CloseOverdueDemoRooms() error {
	rooms, err := s.app.FindRecordsByFilter(
		"rooms",
		"is_demo = true && status = 'open' && auto_close_at <= {:now}",
		"",
		200,
		0,
		map[string]any{"now": types.NowDateTime()},
	)
	if err != nil {
		return fmt.Errorf("failed to find overdue demo rooms: %w", err)
	}

	for _, room := range rooms {
		if err := s.AutoCloseDemo(room.Id); err != nil {
			s.app.Logger().Error("demo sweep close failed", "roomId", room.Id, "error", err)
		}
	}
	return nil
}

// ListByCaller returns the rooms the caller participates in, most recently
// joined first.
func (s *RoomService) ListByCaller(caller *Caller) ([]*core.Record, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	memberships, err := s.app.FindRecordsByFilter(
		"participants",
		"user_id = {:userId}",
		"-joined_at",
		200,
		0,
		map[string]any{"userId": caller.UserID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get memberships: %w", err)
	}

	rooms := make([]*core.Record, 0, len(memberships))
	for _, membership := range memberships {
		room, err := s.app.FindRecordById("rooms", membership.GetString("room_id"))
		if err != nil {
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func clampTimerDuration(seconds int) int {
	if seconds == 0 {
		return config.DefaultTimerDurationSeconds
	}
	if seconds < config.MinTimerDurationSeconds {
		return config.MinTimerDurationSeconds
	}
	if seconds > config.MaxTimerDurationSeconds {
		return config.MaxTimerDurationSeconds
	}
	return seconds
}

func clearTimer(room *core.Record) {
	room.Set("timer_started_at", "")
	room.Set("timer_ends_at", "")
}

func timerDuration(room *core.Record) time.Duration {
	return time.Duration(room.GetInt("timer_duration_seconds")) * time.Second
}
