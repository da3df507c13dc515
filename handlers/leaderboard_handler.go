package handlers

import (
	"net/http"

	"github.com/esports-arena/platform/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(ls *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: ls}
}

// List godoc
// @Summary Таблица лидеров турнира
// @Tags leaderboard
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Router /tournaments/{tournamentID}/leaderboard [get]
func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.leaderboardService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateEntry godoc
// @Summary Создать запись в таблице лидеров
// @Tags leaderboard
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/tournaments/{tournamentID}/leaderboard [post]
func (h *LeaderboardHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		UserID int `json:"user_id"`
		services.UpsertLeaderboardStatsInput
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.leaderboardService.CreateEntry(r.Context(), tournamentID, input.UserID, input.UpsertLeaderboardStatsInput)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStats godoc
// @Summary Обновить статистику записи
// @Tags leaderboard
// @Accept json
// @Produce json
// @Param entryID path int true "Entry ID"
// @Param body body services.UpsertLeaderboardStatsInput true "Новая статистика"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/leaderboard/{entryID} [put]
func (h *LeaderboardHandler) UpdateStats(w http.ResponseWriter, r *http.Request) {
	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpsertLeaderboardStatsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.leaderboardService.UpdateStats(r.Context(), entryID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Recalculate godoc
// @Summary Пересчитать места в таблице лидеров
// @Tags leaderboard
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Обновлённая таблица"
// @Security BearerAuth
// @Router /admin/tournaments/{tournamentID}/leaderboard/recalculate [post]
func (h *LeaderboardHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.leaderboardService.RecalculateRanks(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Disqualify godoc
// @Summary Дисквалифицировать участника
// @Tags leaderboard
// @Accept json
// @Produce json
// @Param entryID path int true "Entry ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Не указана причина"
// @Security BearerAuth
// @Router /admin/leaderboard/{entryID}/disqualify [post]
func (h *LeaderboardHandler) Disqualify(w http.ResponseWriter, r *http.Request) {
	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.leaderboardService.Disqualify(r.Context(), entryID, input.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Requalify godoc
// @Summary Снять дисквалификацию
// @Tags leaderboard
// @Produce json
// @Param entryID path int true "Entry ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/leaderboard/{entryID}/requalify [post]
func (h *LeaderboardHandler) Requalify(w http.ResponseWriter, r *http.Request) {
	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.leaderboardService.Requalify(r.Context(), entryID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DistributePrize godoc
// @Summary Выдать приз участнику
// @Tags leaderboard
// @Accept json
// @Produce json
// @Param entryID path int true "Entry ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Отрицательная сумма"
// @Security BearerAuth
// @Router /admin/leaderboard/{entryID}/prize [post]
func (h *LeaderboardHandler) DistributePrize(w http.ResponseWriter, r *http.Request) {
	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Amount int `json:"amount"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.leaderboardService.DistributePrize(r.Context(), entryID, input.Amount)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteEntry godoc
// @Summary Удалить запись из таблицы лидеров
// @Tags leaderboard
// @Param entryID path int true "Entry ID"
// @Success 204 "Запись удалена"
// @Security BearerAuth
// @Router /admin/leaderboard/{entryID} [delete]
func (h *LeaderboardHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.leaderboardService.DeleteEntry(r.Context(), entryID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
