package handler

import (
	"net/http"

	"meshwar/internal/activities/service"
	httputil "meshwar/pkg/http"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ActivityHandler struct {
	service service.ActivityService
	log     *logger.Logger
}

func NewActivityHandler(service service.ActivityService, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		log:     log,
	}
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var activity model.Activity
	if err := httputil.DecodeJSON(r, &activity); err != nil {
		httputil.RespondError(w, h.log, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &activity); err != nil {
		httputil.RespondError(w, h.log, "Create", err)
		return
	}

	httputil.RespondCreated(w, h.log, "Create", activity)
}

func (h *ActivityHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	activity, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.RespondError(w, h.log, "GetByID", err)
		return
	}

	httputil.RespondSuccess(w, h.log, "GetByID", activity)
}

func (h *ActivityHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.RespondError(w, h.log, "GetAll", err)
		return
	}

	activities, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.RespondError(w, h.log, "GetAll", err)
		return
	}

	httputil.RespondPaginated(w, h.log, "GetAll", activities, total, limit, offset)
}

func (h *ActivityHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.RespondError(w, h.log, "Search", err)
		return
	}

	filter := model.ActivityFilter{LocationID: r.URL.Query().Get("location_id")}
	activities, total, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.RespondError(w, h.log, "Search", err)
		return
	}

	httputil.RespondPaginated(w, h.log, "Search", activities, total, limit, offset)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ActivityUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		httputil.RespondError(w, h.log, "Update", err)
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		httputil.RespondError(w, h.log, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.RespondError(w, h.log, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ActivityHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/activities", h.Create)
	router.GET("/api/v1/activities", h.GetAll)
	router.GET("/api/v1/activities/search", h.Search)
	router.GET("/api/v1/activities/id/:id", h.GetByID)
	router.PATCH("/api/v1/activities/id/:id", h.Update)
	router.DELETE("/api/v1/activities/id/:id", h.Delete)
}
