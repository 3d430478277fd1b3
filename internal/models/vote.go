package models

import (
	"github.com/pocketbase/pocketbase/core"
)

// VoteView is the redaction-aware client shape of a vote. Before reveal,
// Value is nil for everyone except the vote's owner while HasVoted stays
// true, so clients can render "who has voted" without leaking values.
type VoteView struct {
	ID            string  `json:"id"`
	RoundID       string  `json:"roundId"`
	ParticipantID string  `json:"participantId"`
	HasVoted      bool    `json:"hasVoted"`
	Value         *string `json:"value"`
	VotedAt       string  `json:"votedAt"`
}

// NewVoteView builds a vote view, including the value only when permitted.
func NewVoteView(record *core.Record, includeValue bool) *VoteView {
	view := &VoteView{
		ID:            record.Id,
		RoundID:       record.GetString("round_id"),
		ParticipantID: record.GetString("participant_id"),
		HasVoted:      true,
		VotedAt:       record.GetString("voted_at"),
	}
	if includeValue {
		value := record.GetString("value")
		view.Value = &value
	}
	return view
}
