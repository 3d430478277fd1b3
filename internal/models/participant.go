package models

import (
	"github.com/pocketbase/pocketbase/core"
)

type ParticipantRole string

const (
	RoleAdmin ParticipantRole = "admin"
	RoleTeam  ParticipantRole = "team"
)

type ParticipantType string

const (
	TypeVoter    ParticipantType = "voter"
	TypeObserver ParticipantType = "observer"
)

type ParticipantView struct {
	ID              string          `json:"id"`
	RoomID          string          `json:"roomId"`
	UserID          string          `json:"userId"`
	Name            string          `json:"name"`
	AvatarURL       string          `json:"avatarUrl,omitempty"`
	Role            ParticipantRole `json:"role"`
	ParticipantType ParticipantType `json:"participantType"`
	JoinedAt        string          `json:"joinedAt"`
}

func NewParticipantView(record *core.Record) *ParticipantView {
	return &ParticipantView{
		ID:              record.Id,
		RoomID:          record.GetString("room_id"),
		UserID:          record.GetString("user_id"),
		Name:            record.GetString("name"),
		AvatarURL:       record.GetString("avatar_url"),
		Role:            ParticipantRole(record.GetString("role")),
		ParticipantType: ParticipantType(record.GetString("participant_type")),
		JoinedAt:        record.GetString("joined_at"),
	}
}
