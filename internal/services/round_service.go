package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"github.com/KevinVandy/pointmystory-sub000/internal/models"
	"github.com/KevinVandy/pointmystory-sub000/internal/scale"
	"github.com/KevinVandy/pointmystory-sub000/internal/stats"
)

// RoundService owns the round/vote state machine: round creation, vote
// casting, reveal (manual and automatic), final scores, and the redaction
// policy for unrevealed votes.
type RoundService struct {
	app       core.App
	scheduler Scheduler
	onChange  func(roomID, event string)
}

func NewRoundService(app core.App, scheduler Scheduler) *RoundService {
	return &RoundService{
		app:       app,
		scheduler: scheduler,
	}
}

// OnChange registers a hook invoked after system-initiated mutations
// (auto-reveal) so the push layer can notify subscribers.
func (s *RoundService) OnChange(fn func(roomID, event string)) {
	s.onChange = fn
}

func (s *RoundService) notify(roomID, event string) {
	if s.onChange != nil {
		s.onChange(roomID, event)
	}
}

// createRound inserts a fresh unrevealed round. Shared with RoomService
// for the room-creation bootstrap.
func createRound(app core.App, roomID, name, ticketNumber string) (*core.Record, error) {
	collection, err := app.FindCollectionByNameOrId("rounds")
	if err != nil {
		return nil, fmt.Errorf("failed to find rounds collection: %w", err)
	}

	round := core.NewRecord(collection)
	round.Set("room_id", roomID)
	round.Set("name", name)
	round.Set("ticket_number", ticketNumber)
	round.Set("is_revealed", false)
	round.Set("unsure_count", 0)

	if err := app.Save(round); err != nil {
		return nil, fmt.Errorf("failed to save round: %w", err)
	}
	return round, nil
}

// StartNewRound creates the next round and repoints the room at it. The
// previous round is "ended" purely by the repointing; its data is never
// touched, so revealed history stays frozen.
func (s *RoundService) StartNewRound(caller *Caller, roomID, name, ticketNumber string) (*core.Record, error) {
	var round *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
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

		round, err = createRound(txApp, roomID, name, ticketNumber)
		if err != nil {
			return err
		}

		room.Set("current_round_id", round.Id)
		clearTimer(room)
		if label := storyLabel(name, ticketNumber); label != "" {
			room.Set("current_story", label)
		}
		if room.GetBool("auto_start_timer") {
			now := types.NowDateTime()
			room.Set("timer_started_at", now)
			room.Set("timer_ends_at", now.Add(timerDuration(room)))
		}
		return txApp.Save(room)
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}

// CastVote validates and upserts the caller's vote for the current round,
// then runs the auto-reveal check. The check runs even when the cast was
// an update in place: a late value change by the last remaining voter must
// still trigger reveal.
func (s *RoundService) CastVote(caller *Caller, roomID, value string) (*core.Record, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	var vote *core.Record
	var roundID string
	err := s.app.RunInTransaction(func(txApp core.App) error {
		room, err := findRoom(txApp, roomID)
		if err != nil {
			return err
		}
		if room.GetString("status") == string(models.RoomStatusClosed) {
			return ErrRoomClosed
		}

		round, err := currentRound(txApp, room)
		if err != nil {
			return err
		}
		if round.GetBool("is_revealed") {
			return ErrRoundRevealed
		}
		roundID = round.Id

		if !scale.IsValidToken(value, roomScale(txApp, room)) {
			return ErrInvalidVoteValue
		}

		participant := findParticipantByUser(txApp, roomID, caller.UserID)
		if participant == nil {
			return ErrNotJoined
		}
		if EffectiveParticipantType(participant) == models.TypeObserver {
			return ErrObserversCannotVote
		}

		vote = findVoteByRoundParticipant(txApp, round.Id, participant.Id)
		if vote == nil {
			collection, err := txApp.FindCollectionByNameOrId("votes")
			if err != nil {
				return fmt.Errorf("failed to find votes collection: %w", err)
			}
			vote = core.NewRecord(collection)
			vote.Set("room_id", roomID)
			vote.Set("round_id", round.Id)
			vote.Set("participant_id", participant.Id)
		}

		vote.Set("value", value)
		vote.Set("voted_at", types.NowDateTime())

		if err := txApp.Save(vote); err != nil {
			return fmt.Errorf("failed to save vote: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.autoRevealCheck(roomID, roundID)
	return vote, nil
}

// autoRevealCheck schedules an immediate reveal once every voter's id
// appears among the round's votes. It runs after the casting transaction
// committed so the counts include the vote that just landed. Concurrent
// last-voter casts may each schedule a reveal; the reveal itself is
// idempotent, so duplicates are harmless.
func (s *RoundService) autoRevealCheck(roomID, roundID string) {
	room, err := findRoom(s.app, roomID)
	if err != nil {
		return
	}
	if !room.GetBool("auto_reveal_votes") {
		return
	}

	participants, err := findRoomParticipants(s.app, roomID)
	if err != nil {
		return
	}
	var voterIDs []string
	for _, p := range participants {
		if EffectiveParticipantType(p) == models.TypeVoter {
			voterIDs = append(voterIDs, p.Id)
		}
	}
	if len(voterIDs) == 0 {
		return
	}

	votes, err := findVotesByRound(s.app, roundID)
	if err != nil {
		return
	}
	voted := make(map[string]bool, len(votes))
	for _, v := range votes {
		voted[v.GetString("participant_id")] = true
	}
	for _, id := range voterIDs {
		if !voted[id] {
			return
		}
	}

	s.scheduler.After(0, func() {
		if err := s.autoReveal(roomID, roundID); err != nil {
			s.app.Logger().Error("auto-reveal failed", "roomId", roomID, "roundId", roundID, "error", err)
		}
	})
}

// autoReveal is the deferred system-initiated reveal. It skips the admin
// check but still refuses closed rooms, and no-ops when the round is no
// longer current (a new round may have started in the gap).
func (s *RoundService) autoReveal(roomID, roundID string) error {
	err := s.app.RunInTransaction(func(txApp core.App) error {
		room, err := txApp.FindRecordById("rooms", roomID)
		if err != nil {
			return nil
		}
		if room.GetString("status") == string(models.RoomStatusClosed) {
			return nil
		}
		if room.GetString("current_round_id") != roundID {
			return nil
		}

		round, err := findRound(txApp, roundID)
		if err != nil {
			return nil
		}
		return revealRound(txApp, room, round)
	})
	if err != nil {
		return err
	}

	s.notify(roomID, models.MsgTypeVotesRevealed)
	return nil
}

// Reveal is the admin-triggered reveal of the room's current round.
func (s *RoundService) Reveal(caller *Caller, roomID string) (*core.Record, error) {
	var round *core.Record
	err := s.app.RunInTransaction(func(txApp core.App) error {
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

		round, err = currentRound(txApp, room)
		if err != nil {
			return err
		}
		return revealRound(txApp, room, round)
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}

// revealRound computes and freezes the round statistics. Safe to run more
// than once: votes cannot change after the first reveal, so recomputing
// stats is stable, revealedAt is only set the first time, and an existing
// finalScore is never overwritten.
func revealRound(app core.App, room, round *core.Record) error {
	votes, err := findVotesByRound(app, round.Id)
	if err != nil {
		return err
	}

	values := make([]string, 0, len(votes))
	for _, v := range votes {
		values = append(values, v.GetString("value"))
	}
	result := stats.Compute(values)

	round.Set("is_revealed", true)
	if round.GetString("revealed_at") == "" {
		round.Set("revealed_at", types.NowDateTime())
	}

	// The number columns flatten "no value" to zero on save, so presence
	// is recorded in has_scores. Average and median are derived from the
	// same numeric votes: both present or both absent.
	round.Set("has_scores", result.Average != nil)
	if result.Average != nil {
		round.Set("average_score", *result.Average)
	} else {
		round.Set("average_score", 0)
	}
	if result.Median != nil {
		round.Set("median_score", *result.Median)
	} else {
		round.Set("median_score", 0)
	}
	round.Set("unsure_count", result.UnsureCount)

	if round.GetString("final_score") == "" {
		target := result.Average
		if target == nil {
			target = result.Median
		}
		defaultScore := stats.RoundToNearestScale(target, roomScale(app, room), room.GetString("point_scale_preset"))
		if defaultScore != nil {
			round.Set("final_score", *defaultScore)
		}
	}

	if err := app.Save(round); err != nil {
		return fmt.Errorf("failed to reveal round: %w", err)
	}
	return nil
}

// SetFinalScore patches a round's consensus value regardless of revealed
// state. The scale is not enforced here; clients only offer scale tokens.
func (s *RoundService) SetFinalScore(caller *Caller, roundID, value string) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		round, err := findRound(txApp, roundID)
		if err != nil {
			return err
		}
		room, err := findRoom(txApp, round.GetString("room_id"))
		if err != nil {
			return err
		}
		if _, err := requireAdmin(txApp, caller, room); err != nil {
			return err
		}

		round.Set("final_score", value)
		return txApp.Save(round)
	})
}

// VotesForRoom returns the current round's votes for any caller who can
// view the room. Unrevealed votes are redacted: value is nil for everyone
// except the caller's own vote, while hasVoted and timestamps stay
// visible.
func (s *RoundService) VotesForRoom(caller *Caller, roomID string) ([]*models.VoteView, error) {
	room, err := findRoom(s.app, roomID)
	if err != nil {
		return nil, err
	}
	if !CanView(room, caller.IsAuthenticated()) {
		return nil, ErrPermissionDenied
	}

	roundID := room.GetString("current_round_id")
	if roundID == "" {
		return []*models.VoteView{}, nil
	}
	round, err := findRound(s.app, roundID)
	if err != nil {
		return []*models.VoteView{}, nil
	}

	votes, err := findVotesByRound(s.app, round.Id)
	if err != nil {
		return nil, err
	}

	return redactVotes(s.app, votes, round, roomID, caller), nil
}

// CurrentVote returns the caller's own vote in the room's current round,
// or nil when they have not voted.
func (s *RoundService) CurrentVote(caller *Caller, roomID string) (*models.VoteView, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	room, err := findRoom(s.app, roomID)
	if err != nil {
		return nil, err
	}

	participant := findParticipantByUser(s.app, roomID, caller.UserID)
	if participant == nil {
		return nil, nil
	}
	roundID := room.GetString("current_round_id")
	if roundID == "" {
		return nil, nil
	}

	vote := findVoteByRoundParticipant(s.app, roundID, participant.Id)
	if vote == nil {
		return nil, nil
	}
	return models.NewVoteView(vote, true), nil
}

// ListRounds returns a room's full round history oldest-first, with
// display numbers recomputed from the ordering.
func (s *RoundService) ListRounds(caller *Caller, roomID string) ([]*models.RoundView, error) {
	room, err := findRoom(s.app, roomID)
	if err != nil {
		return nil, err
	}
	if !CanView(room, caller.IsAuthenticated()) {
		return nil, ErrPermissionDenied
	}

	rounds, err := findRoundsByRoom(s.app, roomID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.RoundView, 0, len(rounds))
	for i, round := range rounds {
		view := models.NewRoundView(round)
		view.RoundNumber = i + 1
		views = append(views, view)
	}
	return views, nil
}

// RoundWithVotes returns one round and its votes, redacted when the round
// is not yet revealed.
func (s *RoundService) RoundWithVotes(caller *Caller, roundID string) (*models.RoundView, []*models.VoteView, error) {
	round, err := findRound(s.app, roundID)
	if err != nil {
		return nil, nil, err
	}
	room, err := findRoom(s.app, round.GetString("room_id"))
	if err != nil {
		return nil, nil, err
	}
	if !CanView(room, caller.IsAuthenticated()) {
		return nil, nil, ErrPermissionDenied
	}

	votes, err := findVotesByRound(s.app, round.Id)
	if err != nil {
		return nil, nil, err
	}

	return models.NewRoundView(round), redactVotes(s.app, votes, round, room.Id, caller), nil
}

// redactVotes applies the pre-reveal visibility policy.
func redactVotes(app core.App, votes []*core.Record, round *core.Record, roomID string, caller *Caller) []*models.VoteView {
	revealed := round.GetBool("is_revealed")

	var ownParticipantID string
	if !revealed && caller != nil {
		if participant := findParticipantByUser(app, roomID, caller.UserID); participant != nil {
			ownParticipantID = participant.Id
		}
	}

	views := make([]*models.VoteView, 0, len(votes))
	for _, vote := range votes {
		include := revealed || vote.GetString("participant_id") == ownParticipantID
		views = append(views, models.NewVoteView(vote, include))
	}
	return views
}

func storyLabel(name, ticketNumber string) string {
	if name != "" {
		return name
	}
	return ticketNumber
}
