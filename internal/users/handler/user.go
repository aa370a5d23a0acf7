package handler

import (
	"net/http"

	"meshwar/internal/users/service"
	httputil "meshwar/pkg/http"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var user model.User
	if err := httputil.DecodeJSON(r, &user); err != nil {
		httputil.RespondError(w, h.log, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &user); err != nil {
		httputil.RespondError(w, h.log, "Create", err)
		return
	}

	httputil.RespondCreated(w, h.log, "Create", user)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.RespondError(w, h.log, "GetByID", err)
		return
	}

	httputil.RespondSuccess(w, h.log, "GetByID", user)
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.RespondError(w, h.log, "GetAll", err)
		return
	}

	users, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		httputil.RespondError(w, h.log, "GetAll", err)
		return
	}

	httputil.RespondPaginated(w, h.log, "GetAll", users, total, limit, offset)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.UserUpdate
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

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.RespondError(w, h.log, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/users", h.Create)
	router.GET("/api/v1/users", h.GetAll)
	router.GET("/api/v1/users/id/:id", h.GetByID)
	router.PATCH("/api/v1/users/id/:id", h.Update)
	router.DELETE("/api/v1/users/id/:id", h.Delete)
}
