package handler

import (
	"net/http"
	"time"

	"meshwar/internal/dashboard/service"
	httputil "meshwar/pkg/http"
	"meshwar/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *logger.Logger
	now     func() time.Time
}

func NewDashboardHandler(service service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		log:     log,
		now:     time.Now,
	}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summary, err := h.service.Summary(r.Context(), h.now())
	if err != nil {
		httputil.RespondError(w, h.log, "Summary", err)
		return
	}

	httputil.RespondSuccess(w, h.log, "Summary", summary)
}

func (h *DashboardHandler) BookingsChart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	from, err := httputil.ExtractTime(r, "from")
	if err != nil {
		httputil.RespondError(w, h.log, "BookingsChart", err)
		return
	}
	to, err := httputil.ExtractTime(r, "to")
	if err != nil {
		httputil.RespondError(w, h.log, "BookingsChart", err)
		return
	}

	points, err := h.service.BookingsChart(r.Context(), from, to, r.URL.Query().Get("granularity"))
	if err != nil {
		httputil.RespondError(w, h.log, "BookingsChart", err)
		return
	}

	httputil.RespondSuccess(w, h.log, "BookingsChart", points)
}

func (h *DashboardHandler) TopActivities(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, err := httputil.ExtractInt(r, "limit", service.DefaultTopActivities)
	if err != nil {
		httputil.RespondError(w, h.log, "TopActivities", err)
		return
	}

	activities, err := h.service.TopActivities(r.Context(), limit)
	if err != nil {
		httputil.RespondError(w, h.log, "TopActivities", err)
		return
	}

	httputil.RespondSuccess(w, h.log, "TopActivities", activities)
}

func (h *DashboardHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/dashboard/summary", h.Summary)
	router.GET("/api/v1/dashboard/bookings-chart", h.BookingsChart)
	router.GET("/api/v1/dashboard/top-activities", h.TopActivities)
}
