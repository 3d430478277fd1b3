package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/KevinVandy/pointmystory-sub000/internal/models"
	"github.com/KevinVandy/pointmystory-sub000/internal/services"
)

// ParticipantHandlers exposes join/leave/promote/type-switch over HTTP.
type ParticipantHandlers struct {
	participants *services.ParticipantService
	hub          *services.Hub
}

func NewParticipantHandlers(participants *services.ParticipantService, hub *services.Hub) *ParticipantHandlers {
	return &ParticipantHandlers{participants: participants, hub: hub}
}

func (h *ParticipantHandlers) Register(se *core.ServeEvent) {
	g := se.Router.Group("/api/rooms/{roomId}")

	g.POST("/join", h.Join)
	g.POST("/leave", h.Leave)
	g.GET("/participants", h.ListParticipants)
	g.POST("/participants/{participantId}/promote", h.Promote)
	g.PATCH("/participant-type", h.UpdateType)
}

func (h *ParticipantHandlers) Join(re *core.RequestEvent) error {
	var req struct {
		ParticipantType string `json:"participantType"`
	}
	if err := re.BindBody(&req); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	participant, err := h.participants.Join(caller, roomID, models.ParticipantType(req.ParticipantType))
	if err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeParticipantJoined)
	return re.JSON(http.StatusOK, models.NewParticipantView(participant))
}

func (h *ParticipantHandlers) Leave(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	if err := h.participants.Leave(caller, roomID); err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeParticipantLeft)
	return re.NoContent(http.StatusNoContent)
}

func (h *ParticipantHandlers) ListParticipants(re *core.RequestEvent) error {
	caller := services.ResolveCaller(re)
	views, err := h.participants.ListParticipants(caller, re.Request.PathValue("roomId"))
	if err != nil {
		return writeServiceError(re, err)
	}
	return re.JSON(http.StatusOK, views)
}

func (h *ParticipantHandlers) Promote(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	if err := h.participants.PromoteToAdmin(caller, roomID, re.Request.PathValue("participantId")); err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeParticipantUpdated)
	return re.NoContent(http.StatusNoContent)
}

func (h *ParticipantHandlers) UpdateType(re *core.RequestEvent) error {
	var req struct {
		ParticipantType string `json:"participantType"`
	}
	if err := re.BindBody(&req); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	participant, err := h.participants.UpdateType(caller, roomID, models.ParticipantType(req.ParticipantType))
	if err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeParticipantUpdated)
	return re.JSON(http.StatusOK, models.NewParticipantView(participant))
}
