package handlers

import (
	"net/http"

	"github.com/esports-arena/platform/middleware"
	"github.com/esports-arena/platform/models"
	"github.com/esports-arena/platform/services"
)

type EnrollmentHandler struct {
	enrollmentService *services.EnrollmentService
}

func NewEnrollmentHandler(es *services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: es}
}

// Submit godoc
// @Summary Подать заявку на участие в турнире
// @Tags enrollments
// @Description Игрок подаёт заявку с игровыми данными и идентификатором платежа.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body services.SubmitEnrollmentInput true "Данные заявки"
// @Success 201 {object} map[string]interface{} "Заявка создана"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 403 {object} map[string]string "Регистрация закрыта"
// @Failure 409 {object} map[string]string "Уже зарегистрирован / турнир полон"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/enrollments [post]
func (h *EnrollmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.SubmitEnrollmentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	enrollment, err := h.enrollmentService.Submit(r.Context(), currentUserID, tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"enrollment": enrollment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Approve godoc
// @Summary Одобрить заявку (подтверждение оплаты)
// @Tags enrollments
// @Description Админ подтверждает оплату: назначается team id, увеличивается счётчик участников.
// @Produce json
// @Param enrollmentID path int true "Enrollment ID"
// @Success 200 {object} map[string]interface{} "Заявка одобрена"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Failure 409 {object} map[string]string "Заявка уже решена"
// @Security BearerAuth
// @Router /admin/enrollments/{enrollmentID}/approve [post]
func (h *EnrollmentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := getIDFromURL(r, "enrollmentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	enrollment, err := h.enrollmentService.Approve(r.Context(), enrollmentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"enrollment": enrollment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Reject godoc
// @Summary Отклонить заявку
// @Tags enrollments
// @Produce json
// @Param enrollmentID path int true "Enrollment ID"
// @Success 200 {object} map[string]interface{} "Заявка отклонена"
// @Failure 404 {object} map[string]string "Заявка не найдена"
// @Failure 409 {object} map[string]string "Заявка уже решена"
// @Security BearerAuth
// @Router /admin/enrollments/{enrollmentID}/reject [post]
func (h *EnrollmentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := getIDFromURL(r, "enrollmentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	enrollment, err := h.enrollmentService.Reject(r.Context(), enrollmentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"enrollment": enrollment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByTournament godoc
// @Summary Список заявок турнира
// @Tags enrollments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param status query string false "Фильтр по статусу (pending, completed, rejected)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/tournaments/{tournamentID}/enrollments [get]
func (h *EnrollmentHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var statusFilter *models.EnrollmentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.EnrollmentStatus(raw)
		statusFilter = &status
	}

	enrollments, err := h.enrollmentService.ListByTournament(r.Context(), tournamentID, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"enrollments": enrollments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMine godoc
// @Summary Мои заявки
// @Tags enrollments
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	enrollments, err := h.enrollmentService.ListByUser(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"enrollments": enrollments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
