package handler

import (
	"net/http"

	"meshwar/internal/bookings/service"
	httputil "meshwar/pkg/http"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"

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

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, h.log, "Create", err)
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.RespondError(w, h.log, "Create", err)
		return
	}

	httputil.RespondCreated(w, h.log, "Create", booking)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.RespondError(w, h.log, "GetByID", err)
		return
	}

	httputil.RespondSuccess(w, h.log, "GetByID", booking)
}

// GetAll lists bookings newest first, optionally narrowed by user_id, activity_id and status.
func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.RespondError(w, h.log, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.BookingFilter{
		UserID:     query.Get("user_id"),
		ActivityID: query.Get("activity_id"),
		Status:     query.Get("status"),
	}

	bookings, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.RespondError(w, h.log, "GetAll", err)
		return
	}

	httputil.RespondPaginated(w, h.log, "GetAll", bookings, total, limit, offset)
}

func (h *BookingHandler) ChangeStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.RespondError(w, h.log, "ChangeStatus", err)
		return
	}

	booking, err := h.service.ChangeStatus(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		httputil.RespondError(w, h.log, "ChangeStatus", err)
		return
	}

	httputil.RespondSuccess(w, h.log, "ChangeStatus", booking)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.RespondError(w, h.log, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id/status", h.ChangeStatus)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)
}
