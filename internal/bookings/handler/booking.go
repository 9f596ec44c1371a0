package handler

import (
	"encoding/json"
	"net/http"

	"roombook/internal/bookings/service"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

type ConflictsResponse struct {
	RoomID      string           `json:"room_id"`
	StartTime   string           `json:"start_time"`
	EndTime     string           `json:"end_time"`
	HasConflict bool             `json:"has_conflict"`
	Conflicts   []*model.Booking `json:"conflicts"`
}

func (h *BookingHandler) CheckConflicts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	roomID := query.Get("room_id")

	start, err := httputil.ParseTimeParam(r, "start_time", true)
	if err != nil {
		h.writeError(w, "CheckConflicts", err)
		return
	}
	end, err := httputil.ParseTimeParam(r, "end_time", true)
	if err != nil {
		h.writeError(w, "CheckConflicts", err)
		return
	}

	conflicts, err := h.service.CheckConflicts(r.Context(), roomID, model.TimeRange{Start: *start, End: *end}, query.Get("exclude_id"))
	if err != nil {
		h.writeError(w, "CheckConflicts", err)
		return
	}

	if err := httputil.WriteSuccess(w, ConflictsResponse{
		RoomID:      roomID,
		StartTime:   query.Get("start_time"),
		EndTime:     query.Get("end_time"),
		HasConflict: len(conflicts) > 0,
		Conflicts:   conflicts,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckConflicts", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	identity, _ := middleware.IdentityFromContext(r.Context())
	booking, err := h.service.Create(r.Context(), identity, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	booking, err := h.service.Cancel(r.Context(), identity, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Mine", err)
		return
	}

	identity, _ := middleware.IdentityFromContext(r.Context())
	bookings, total, err := h.service.ListForUser(r.Context(), identity, r.URL.Query().Get("filter"), limit, offset)
	if err != nil {
		h.writeError(w, "Mine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Mine", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Schedule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	schedule, err := h.service.DailySchedule(r.Context(), query.Get("room_id"), query.Get("date"), query.Get("tz"))
	if err != nil {
		h.writeError(w, "Schedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, schedule); err != nil {
		h.log.Error("failed to write success response", "handler", "Schedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/bookings/conflicts", h.CheckConflicts)
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/mine", h.Mine)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.GET("/api/v1/schedule", h.Schedule)
}
