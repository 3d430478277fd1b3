package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"github.com/KevinVandy/pointmystory-sub000/internal/config"
	"github.com/KevinVandy/pointmystory-sub000/internal/models"
	"github.com/KevinVandy/pointmystory-sub000/internal/services"
)

// RoundHandlers exposes rounds, votes, reveal, and final scores over HTTP.
type RoundHandlers struct {
	rounds *services.RoundService
	hub    *services.Hub
	cfg    *config.Config
}

func NewRoundHandlers(rounds *services.RoundService, hub *services.Hub, cfg *config.Config) *RoundHandlers {
	return &RoundHandlers{rounds: rounds, hub: hub, cfg: cfg}
}

// decorate links a round's ticket number to the configured issue tracker.
// A round without a ticket, or a deployment without a tracker, gets no
// link.
func (h *RoundHandlers) decorate(view *models.RoundView) *models.RoundView {
	if h.cfg == nil || h.cfg.JiraBaseURL == "" || view.TicketNumber == "" {
		return view
	}
	view.TicketURL = strings.TrimSuffix(h.cfg.JiraBaseURL, "/") + "/browse/" + view.TicketNumber
	return view
}

func (h *RoundHandlers) Register(se *core.ServeEvent) {
	rooms := se.Router.Group("/api/rooms")
	rooms.POST("/{roomId}/rounds", h.StartNewRound)
	rooms.GET("/{roomId}/rounds", h.ListRounds)
	rooms.POST("/{roomId}/reveal", h.Reveal)
	rooms.POST("/{roomId}/votes", h.CastVote)
	rooms.GET("/{roomId}/votes", h.ListVotes)
	rooms.GET("/{roomId}/votes/mine", h.CurrentVote)

	rounds := se.Router.Group("/api/rounds")
	rounds.GET("/{roundId}", h.GetRound)
	rounds.PATCH("/{roundId}/final-score", h.SetFinalScore)
}

type startRoundRequest struct {
	Name         string `json:"name"`
	TicketNumber string `json:"ticketNumber"`
}

func (h *RoundHandlers) StartNewRound(re *core.RequestEvent) error {
	var req startRoundRequest
	if err := re.BindBody(&req); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	round, err := h.rounds.StartNewRound(caller, roomID, req.Name, req.TicketNumber)
	if err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeNewRound)
	return re.JSON(http.StatusCreated, h.decorate(models.NewRoundView(round)))
}

func (h *RoundHandlers) ListRounds(re *core.RequestEvent) error {
	caller := services.ResolveCaller(re)
	views, err := h.rounds.ListRounds(caller, re.Request.PathValue("roomId"))
	if err != nil {
		return writeServiceError(re, err)
	}
	for _, view := range views {
		h.decorate(view)
	}
	return re.JSON(http.StatusOK, views)
}

func (h *RoundHandlers) GetRound(re *core.RequestEvent) error {
	caller := services.ResolveCaller(re)
	round, votes, err := h.rounds.RoundWithVotes(caller, re.Request.PathValue("roundId"))
	if err != nil {
		return writeServiceError(re, err)
	}
	return re.JSON(http.StatusOK, map[string]any{
		"round": h.decorate(round),
		"votes": votes,
	})
}

func (h *RoundHandlers) Reveal(re *core.RequestEvent) error {
	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	round, err := h.rounds.Reveal(caller, roomID)
	if err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeVotesRevealed)
	return re.JSON(http.StatusOK, h.decorate(models.NewRoundView(round)))
}

func (h *RoundHandlers) SetFinalScore(re *core.RequestEvent) error {
	var req struct {
		FinalScore string `json:"finalScore"`
	}
	if err := re.BindBody(&req); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	caller := services.ResolveCaller(re)
	if err := h.rounds.SetFinalScore(caller, re.Request.PathValue("roundId"), req.FinalScore); err != nil {
		return writeServiceError(re, err)
	}
	return re.NoContent(http.StatusNoContent)
}

func (h *RoundHandlers) CastVote(re *core.RequestEvent) error {
	var req struct {
		Value string `json:"value"`
	}
	if err := re.BindBody(&req); err != nil {
		return re.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	roomID := re.Request.PathValue("roomId")
	caller := services.ResolveCaller(re)
	vote, err := h.rounds.CastVote(caller, roomID, req.Value)
	if err != nil {
		return writeServiceError(re, err)
	}

	h.hub.RoomChanged(roomID, models.MsgTypeVoteCast)
	return re.JSON(http.StatusOK, models.NewVoteView(vote, true))
}

func (h *RoundHandlers) ListVotes(re *core.RequestEvent) error {
	caller := services.ResolveCaller(re)
	views, err := h.rounds.VotesForRoom(caller, re.Request.PathValue("roomId"))
	if err != nil {
		return writeServiceError(re, err)
	}
	return re.JSON(http.StatusOK, views)
}

func (h *RoundHandlers) CurrentVote(re *core.RequestEvent) error {
	caller := services.ResolveCaller(re)
	view, err := h.rounds.CurrentVote(caller, re.Request.PathValue("roomId"))
	if err != nil {
		return writeServiceError(re, err)
	}
	if view == nil {
		return re.JSON(http.StatusOK, map[string]any{"vote": nil})
	}
	return re.JSON(http.StatusOK, map[string]any{"vote": view})
}
