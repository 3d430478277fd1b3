package models

import (
	"github.com/pocketbase/pocketbase/core"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type RoomStatus string

const (
	RoomStatusOpen   RoomStatus = "open"
	RoomStatusClosed RoomStatus = "closed"
)

// RoomView is the JSON shape returned to clients. All persistent state is
// managed in the database; this struct exists for rendering responses.
type RoomView struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	HostID               string     `json:"hostId"`
	Visibility           Visibility `json:"visibility"`
	PointScalePreset     string     `json:"pointScalePreset"`
	PointScale           []string   `json:"pointScale"`
	TimerDurationSeconds int        `json:"timerDurationSeconds"`
	AutoStartTimer       bool       `json:"autoStartTimer"`
	AutoRevealVotes      bool       `json:"autoRevealVotes"`
	Status               RoomStatus `json:"status"`
	CurrentRoundID       string     `json:"currentRoundId"`
	CurrentStory         string     `json:"currentStory"`
	TimerStartedAt       string     `json:"timerStartedAt,omitempty"`
	TimerEndsAt          string     `json:"timerEndsAt,omitempty"`
	OrganizationID       string     `json:"organizationId,omitempty"`
	IsDemo               bool       `json:"isDemo"`
	AutoCloseAt          string     `json:"autoCloseAt,omitempty"`
}

// NewRoomView maps a rooms record to its client-facing shape. The demo
// session id is deliberately omitted; it is returned only once at creation.
func NewRoomView(record *core.Record) *RoomView {
	var scale []string
	_ = record.UnmarshalJSONField("point_scale", &scale)

	return &RoomView{
		ID:                   record.Id,
		Name:                 record.GetString("name"),
		HostID:               record.GetString("host_id"),
		Visibility:           Visibility(record.GetString("visibility")),
		PointScalePreset:     record.GetString("point_scale_preset"),
		PointScale:           scale,
		TimerDurationSeconds: record.GetInt("timer_duration_seconds"),
		AutoStartTimer:       record.GetBool("auto_start_timer"),
		AutoRevealVotes:      record.GetBool("auto_reveal_votes"),
		Status:               RoomStatus(record.GetString("status")),
		CurrentRoundID:       record.GetString("current_round_id"),
		CurrentStory:         record.GetString("current_story"),
		TimerStartedAt:       record.GetString("timer_started_at"),
		TimerEndsAt:          record.GetString("timer_ends_at"),
		OrganizationID:       record.GetString("organization_id"),
		IsDemo:               record.GetBool("is_demo"),
		AutoCloseAt:          record.GetString("auto_close_at"),
	}
}
