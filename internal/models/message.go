package models

type WSMessage struct {
	Type    string      `json:"type"`
	RoomID  string      `json:"roomId,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Server → Client message types. Clients refetch room state on any of
// these; payloads carry just enough context to know what changed.
const (
	MsgTypeRoomState          = "room_state" // Initial state sync on connection
	MsgTypeRoomUpdated        = "room_updated"
	MsgTypeRoomClosed         = "room_closed"
	MsgTypeParticipantJoined  = "participant_joined"
	MsgTypeParticipantLeft    = "participant_left"
	MsgTypeParticipantUpdated = "participant_updated"
	MsgTypeVoteCast           = "vote_cast"
	MsgTypeVotesRevealed      = "votes_revealed"
	MsgTypeNewRound           = "new_round"
)
