package handlers

import (
	"log/slog"
	"net/http"

	"github.com/esports-arena/platform/live"
	"github.com/esports-arena/platform/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Доступ контролируется на уровне CORS-настроек роутера.
		return true
	},
}

type WebSocketHandler struct {
	hub               *live.Hub
	tournamentService *services.TournamentService
}

func NewWebSocketHandler(hub *live.Hub, ts *services.TournamentService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tournamentService: ts}
}

// Subscribe godoc
// @Summary Подписка на live-события турнира
// @Description Апгрейд до websocket; комната — slug турнира.
// @Tags live
// @Param slug path string true "Tournament slug"
// @Router /ws/tournaments/{slug} [get]
func (h *WebSocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		badRequestResponse(w, r, errEmptySlug)
		return
	}

	// Несуществующий турнир отклоняется до апгрейда.
	if _, err := h.tournamentService.GetBySlug(r.Context(), slug); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed",
			slog.String("slug", slug), slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, slug)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
