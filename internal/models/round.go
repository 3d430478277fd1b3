package models

import (
	"github.com/pocketbase/pocketbase/core"
)

// RoundView is the JSON shape of a round. RoundNumber is display-only,
// recomputed oldest-first from the room's full round history; it is never
// stored.
type RoundView struct {
	ID           string   `json:"id"`
	RoomID       string   `json:"roomId"`
	RoundNumber  int      `json:"roundNumber,omitempty"`
	Name         string   `json:"name,omitempty"`
	TicketNumber string   `json:"ticketNumber,omitempty"`
	TicketURL    string   `json:"ticketUrl,omitempty"`
	IsRevealed   bool     `json:"isRevealed"`
	RevealedAt   string   `json:"revealedAt,omitempty"`
	AverageScore *float64 `json:"averageScore,omitempty"`
	MedianScore  *float64 `json:"medianScore,omitempty"`
	UnsureCount  int      `json:"unsureCount"`
	FinalScore   string   `json:"finalScore,omitempty"`
	CreatedAt    string   `json:"createdAt"`
}

func NewRoundView(record *core.Record) *RoundView {
	view := &RoundView{
		ID:           record.Id,
		RoomID:       record.GetString("room_id"),
		Name:         record.GetString("name"),
		TicketNumber: record.GetString("ticket_number"),
		IsRevealed:   record.GetBool("is_revealed"),
		RevealedAt:   record.GetString("revealed_at"),
		UnsureCount:  record.GetInt("unsure_count"),
		FinalScore:   record.GetString("final_score"),
		CreatedAt:    record.GetString("created"),
	}

	// Stats are absent until reveal, and absent entirely for rounds where
	// no numeric votes were cast. The stored numbers flatten nil to zero,
	// so presence comes from has_scores, not the values.
	if record.GetBool("is_revealed") && record.GetBool("has_scores") {
		avg := record.GetFloat("average_score")
		view.AverageScore = &avg
		med := record.GetFloat("median_score")
		view.MedianScore = &med
	}

	return view
}
