package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/pocketbase/pocketbase/core"

	"github.com/KevinVandy/pointmystory-sub000/internal/models"
	"github.com/KevinVandy/pointmystory-sub000/internal/security"
	"github.com/KevinVandy/pointmystory-sub000/internal/services"
)

// WSHandler upgrades room subscribers to a push-only WebSocket stream.
// All state changes happen over the HTTP API; the socket only tells
// clients when to refetch.
type WSHandler struct {
	hub     *services.Hub
	rooms   *services.RoomService
	origins *security.OriginValidator
}

func NewWSHandler(hub *services.Hub, rooms *services.RoomService, origins *security.OriginValidator) *WSHandler {
	return &WSHandler{hub: hub, rooms: rooms, origins: origins}
}

func (h *WSHandler) Register(se *core.ServeEvent) {
	se.Router.GET("/api/rooms/{roomId}/ws", h.HandleWebSocket)
}

func (h *WSHandler) HandleWebSocket(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)

	result := h.rooms.Get(caller, roomID)
	switch result.Access {
	case services.RoomAccessNotFound:
		return re.JSON(http.StatusNotFound, map[string]string{"error": "room not found"})
	case services.RoomAccessDenied:
		return re.JSON(http.StatusForbidden, map[string]string{"error": "access denied"})
	}

	participantID := ""
	if caller != nil {
		if p := h.rooms.FindCallerParticipant(caller, roomID); p != nil {
			participantID = p.Id
		}
	}

	conn, err := websocket.Accept(re.Response, re.Request, h.origins.GetAcceptOptions())
	if err != nil {
		return err
	}

	client := services.NewClient(conn, h.hub, roomID, participantID)
	h.hub.Register(client)
	client.Start()

	// Initial sync so subscribers render without a second round trip.
	state := &models.WSMessage{
		Type:    models.MsgTypeRoomState,
		RoomID:  roomID,
		Payload: models.NewRoomView(result.Room),
	}
	if data, err := json.Marshal(state); err == nil {
		client.Send(data)
	}

	<-client.Done()
	return nil
}
