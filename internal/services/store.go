package services

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// Record lookup helpers shared by the room/round/participant services.
// Every mutation loads through these inside its own transaction so all
// reads observe a single consistent snapshot.

func findRoom(app core.App, roomID string) (*core.Record, error) {
	record, err := app.FindRecordById("rooms", roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	return record, nil
}

func findRound(app core.App, roundID string) (*core.Record, error) {
	record, err := app.FindRecordById("rounds", roundID)
	if err != nil {
		return nil, fmt.Errorf("%w: round %s", ErrNotFound, roundID)
	}
	return record, nil
}

func findParticipant(app core.App, participantID string) (*core.Record, error) {
	record, err := app.FindRecordById("participants", participantID)
	if err != nil {
		return nil, fmt.Errorf("%w: participant %s", ErrNotFound, participantID)
	}
	return record, nil
}

// findParticipantByUser returns the caller's participant record in a room,
// or nil when the caller has not joined.
func findParticipantByUser(app core.App, roomID, userID string) *core.Record {
	records, err := app.FindRecordsByFilter(
		"participants",
		"room_id = {:roomId} && user_id = {:userId}",
		"",
		1,
		0,
		map[string]any{"roomId": roomID, "userId": userID},
	)
	if err != nil || len(records) == 0 {
		return nil
	}
	return records[0]
}

func findRoomParticipants(app core.App, roomID string) ([]*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		"participants",
		"room_id = {:roomId}",
		"joined_at",
		500,
		0,
		map[string]any{"roomId": roomID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	return records, nil
}

func findVotesByRound(app core.App, roundID string) ([]*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		"votes",
		"round_id = {:roundId}",
		"voted_at",
		500,
		0,
		map[string]any{"roundId": roundID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get votes: %w", err)
	}
	return records, nil
}

// findVoteByRoundParticipant returns the participant's vote in a round, or
// nil when they have not voted.
func findVoteByRoundParticipant(app core.App, roundID, participantID string) *core.Record {
	records, err := app.FindRecordsByFilter(
		"votes",
		"round_id = {:roundId} && participant_id = {:participantId}",
		"",
		1,
		0,
		map[string]any{"roundId": roundID, "participantId": participantID},
	)
	if err != nil || len(records) == 0 {
		return nil
	}
	return records[0]
}

func findVotesByParticipant(app core.App, participantID string) ([]*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		"votes",
		"participant_id = {:participantId}",
		"",
		500,
		0,
		map[string]any{"participantId": participantID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant votes: %w", err)
	}
	return records, nil
}

func findRoundsByRoom(app core.App, roomID string) ([]*core.Record, error) {
	records, err := app.FindRecordsByFilter(
		"rounds",
		"room_id = {:roomId}",
		"created",
		500,
		0,
		map[string]any{"roomId": roomID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}
	return records, nil
}

// roomScale decodes the room's effective point scale. A scale that fails
// to decode is logged and treated as empty, which rejects every vote
// rather than accepting arbitrary ones.
func roomScale(app core.App, room *core.Record) []string {
	var tokens []string
	if err := room.UnmarshalJSONField("point_scale", &tokens); err != nil {
		app.Logger().Error("corrupt point_scale", "roomId", room.Id, "error", err)
	}
	return tokens
}

// currentRound loads the active round a room points at.
func currentRound(app core.App, room *core.Record) (*core.Record, error) {
	roundID := room.GetString("current_round_id")
	if roundID == "" {
		return nil, fmt.Errorf("%w: room %s has no current round", ErrNotFound, room.Id)
	}
	return findRound(app, roundID)
}
