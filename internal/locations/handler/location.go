package handler

import (
	"net/http"

	"meshwar/internal/locations/service"
	httputil "meshwar/pkg/http"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type LocationHandler struct {
	service service.LocationService
	log     *logger.Logger
}

func NewLocationHandler(service service.LocationService, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		service: service,
		log:     log,
	}
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var location model.Location
	if err := httputil.DecodeJSON(r, &location); err != nil {
		httputil.RespondError(w, h.log, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &location); err != nil {
		httputil.RespondError(w, h.log, "Create", err)
		return
	}

	httputil.RespondCreated(w, h.log, "Create", location)
}

func (h *LocationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	location, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.RespondError(w, h.log, "GetByID", err)
		return
	}

	httputil.RespondSuccess(w, h.log, "GetByID", location)
}

func (h *LocationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.RespondError(w, h.log, "GetAll", err)
		return
	}

	locations, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.RespondError(w, h.log, "GetAll", err)
		return
	}

	httputil.RespondPaginated(w, h.log, "GetAll", locations, total, limit, offset)
}

func (h *LocationHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.RespondError(w, h.log, "Search", err)
		return
	}

	query := r.URL.Query()
	filter := model.LocationFilter{
		City:       query.Get("city"),
		CategoryID: query.Get("category_id"),
	}

	locations, total, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		httputil.RespondError(w, h.log, "Search", err)
		return
	}

	httputil.RespondPaginated(w, h.log, "Search", locations, total, limit, offset)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.LocationUpdate
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

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.RespondError(w, h.log, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LocationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/locations", h.Create)
	router.GET("/api/v1/locations", h.GetAll)
	router.GET("/api/v1/locations/search", h.Search)
	router.GET("/api/v1/locations/id/:id", h.GetByID)
	router.PATCH("/api/v1/locations/id/:id", h.Update)
	router.DELETE("/api/v1/locations/id/:id", h.Delete)
}
