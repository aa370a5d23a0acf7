package handler

import (
	"net/http"

	"meshwar/internal/categories/service"
	httputil "meshwar/pkg/http"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CategoryHandler struct {
	service service.CategoryService
	log     *logger.Logger
}

func NewCategoryHandler(service service.CategoryService, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		log:     log,
	}
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var category model.Category
	if err := httputil.DecodeJSON(r, &category); err != nil {
		httputil.RespondError(w, h.log, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &category); err != nil {
		httputil.RespondError(w, h.log, "Create", err)
		return
	}

	httputil.RespondCreated(w, h.log, "Create", category)
}

func (h *CategoryHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	category, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.RespondError(w, h.log, "GetByID", err)
		return
	}

	httputil.RespondSuccess(w, h.log, "GetByID", category)
}

func (h *CategoryHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.RespondError(w, h.log, "GetAll", err)
		return
	}

	categories, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.RespondError(w, h.log, "GetAll", err)
		return
	}

	httputil.RespondPaginated(w, h.log, "GetAll", categories, total, limit, offset)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.CategoryUpdate
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

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.RespondError(w, h.log, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CategoryHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/categories", h.Create)
	router.GET("/api/v1/categories", h.GetAll)
	router.GET("/api/v1/categories/id/:id", h.GetByID)
	router.PATCH("/api/v1/categories/id/:id", h.Update)
	router.DELETE("/api/v1/categories/id/:id", h.Delete)
}
