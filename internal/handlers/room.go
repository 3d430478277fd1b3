package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/KevinVandy/pointmystory-sub000/internal/models"
	"github.com/KevinVandy/pointmystory-sub000/internal/services"
)

// RoomHandlers exposes the room lifecycle over HTTP.
type RoomHandlers struct {
	rooms *services.RoomService
	hub   *services.Hub
}

func NewRoomHandlers(rooms *services.RoomService, hub *services.Hub) *RoomHandlers {
	return &RoomHandlers{rooms: rooms, hub: hub}
}

func (h *RoomHandlers) Register(se *core.ServeEvent) {
	g := se.Router.Group("/api/rooms")

	g.POST("", h.CreateRoom)
	g.POST("/demo", h.CreateDemoRoom)
	g.GET("", h.ListRooms)
	g.GET("/{roomId}", h.GetRoom)
	g.PATCH("/{roomId}/settings", h.UpdateSettings)
	g.PATCH("/{roomId}/story", h.UpdateStory)
	g.POST("/{roomId}/close", h.CloseRoom)
	g.POST("/{roomId}/reopen", h.ReopenRoom)
	g.POST("/{roomId}/timer/start", h.StartTimer)
	g.POST("/{roomId}/timer/stop", h.StopTimer)
}

type createRoomRequest struct {
	Name                 string   `json:"name"`
	Visibility           string   `json:"visibility"`
	PointScalePreset     string   `json:"pointScalePreset"`
	CustomScale          []string `json:"customScale"`
	TimerDurationSeconds int      `json:"timerDurationSeconds"`
	OrganizationID       string   `json:"organizationId"`
}

func (h *RoomHandlers) CreateRoom(re *core.RequestEvent) error {
	var req createRoomRequest
	if err := re.BindBody(&req); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	caller := services.ResolveCaller(re)
	room, err := h.rooms.Create(caller, services.CreateRoomParams{
		Name:                 req.Name,
		Visibility:           models.Visibility(req.Visibility),
		PointScalePreset:     req.PointScalePreset,
		CustomScale:          req.CustomScale,
		TimerDurationSeconds: req.TimerDurationSeconds,
		OrganizationID:       req.OrganizationID,
	})
	if err != nil {
		return writeServiceError(re, err)
	}

	return re.JSON(http.StatusCreated, models.NewRoomView(room))
}

func (h *RoomHandlers) CreateDemoRoom(re *core.RequestEvent) error {
	room, sessionID, err := h.rooms.CreateDemo()
	if err != nil {
		return writeServiceError(re, err)
	}

	// The session id is the demo admin credential; it is returned exactly
	// once and never again.
	return re.JSON(http.StatusCreated, map[string]any{
		"room":          models.NewRoomView(room),
		"demoSessionId": sessionID,
	})
}

func (h *RoomHandlers) ListRooms(re *core.RequestEvent) error {
	caller := services.ResolveCaller(re)
	rooms, err := h.rooms.ListByCaller(caller)
	if err != nil {
		return writeServiceError(re, err)
	}

	views := make([]*models.RoomView, 0, len(rooms))
	for _, room := range rooms {
		views = append(views, models.NewRoomView(room))
	}
	return re.JSON(http.StatusOK, views)
}

func (h *RoomHandlers) GetRoom(re *core.RequestEvent) error {
	caller := services.ResolveCaller(re)
	result := h.rooms.Get(caller, re.Request.PathValue("roomId"))

	// Tri-state body: clients render "missing" and "forbidden" differently.
	switch result.Access {
	case services.RoomAccessNotFound:
		return re.JSON(http.StatusNotFound, map[string]string{"status": string(result.Access)})
	case services.RoomAccessDenied:
		return re.JSON(http.StatusForbidden, map[string]string{"status": string(result.Access)})
	default:
		return re.JSON(http.StatusOK, map[string]any{
			"status": string(result.Access),
			"room":   models.NewRoomView(result.Room),
		})
	}
}

type updateSettingsRequest struct {
	Name                 *string  `json:"name"`
	Visibility           *string  `json:"visibility"`
	PointScalePreset     *string  `json:"pointScalePreset"`
	PointScale           []string `json:"pointScale"`
	TimerDurationSeconds *int     `json:"timerDurationSeconds"`
	AutoStartTimer       *bool    `json:"autoStartTimer"`
	AutoRevealVotes      *bool    `json:"autoRevealVotes"`
}

func (h *RoomHandlers) UpdateSettings(re *core.RequestEvent) error {
	var req updateSettingsRequest
	if err := re.BindBody(&req); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	params := services.UpdateSettingsParams{
		Name:                 req.Name,
		PointScalePreset:     req.PointScalePreset,
		PointScale:           req.PointScale,
		TimerDurationSeconds: req.TimerDurationSeconds,
		AutoStartTimer:       req.AutoStartTimer,
		AutoRevealVotes:      req.AutoRevealVotes,
	}
	if req.Visibility != nil {
		visibility := models.Visibility(*req.Visibility)
		params.Visibility = &visibility
	}

	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	room, err := h.rooms.UpdateSettings(caller, roomID, params)
	if err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeRoomUpdated)
	return re.JSON(http.StatusOK, models.NewRoomView(room))
}

func (h *RoomHandlers) UpdateStory(re *core.RequestEvent) error {
	var req struct {
		Story string `json:"story"`
	}
	if err := re.BindBody(&req); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	if err := h.rooms.UpdateStory(caller, roomID, req.Story); err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeRoomUpdated)
	return re.NoContent(http.StatusNoContent)
}

func (h *RoomHandlers) CloseRoom(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	if err := h.rooms.Close(caller, roomID); err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeRoomClosed)
	return re.NoContent(http.StatusNoContent)
}

func (h *RoomHandlers) ReopenRoom(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	if err := h.rooms.Reopen(caller, roomID); err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeRoomUpdated)
	return re.NoContent(http.StatusNoContent)
}

func (h *RoomHandlers) StartTimer(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	if err := h.rooms.StartTimer(caller, roomID); err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeRoomUpdated)
	return re.NoContent(http.StatusNoContent)
}

func (h *RoomHandlers) StopTimer(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	if err := h.rooms.StopTimer(caller, roomID); err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeRoomUpdated)
	return re.NoContent(http.StatusNoContent)
}
