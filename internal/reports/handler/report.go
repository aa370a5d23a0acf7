package handler

import (
	"net/http"

	"meshwar/internal/reports/service"
	httputil "meshwar/pkg/http"
	"meshwar/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type ReportHandler struct {
	service service.ReportService
	log     *logger.Logger
}

func NewReportHandler(service service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		log:     log,
	}
}

func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	from, err := httputil.ExtractTime(r, "from")
	if err != nil {
		httputil.RespondError(w, h.log, "Export", err)
		return
	}
	to, err := httputil.ExtractTime(r, "to")
	if err != nil {
		httputil.RespondError(w, h.log, "Export", err)
		return
	}

	doc, err := h.service.Export(r.Context(), ps.ByName("kind"), r.URL.Query().Get("format"), from, to)
	if err != nil {
		httputil.RespondError(w, h.log, "Export", err)
		return
	}

	h.writeDocument(w, "Export", doc)
}

func (h *ReportHandler) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doc, err := h.service.Receipt(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.RespondError(w, h.log, "Receipt", err)
		return
	}

	h.writeDocument(w, "Receipt", doc)
}

func (h *ReportHandler) writeDocument(w http.ResponseWriter, handler string, doc *service.Document) {
	if err := httputil.WriteFile(w, doc.ContentType, doc.Filename, doc.Body); err != nil {
		h.log.Error("failed to write report", "handler", handler, "filename", doc.Filename, "error", err)
	}
}

func (h *ReportHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/reports/:kind", h.Export)
	router.GET("/api/v1/reports/:kind/:id/receipt", h.receiptRoute)
}

// receiptRoute serves /reports/bookings/:id/receipt. httprouter cannot register that
// path next to /reports/:kind, so the kind segment is matched here.
func (h *ReportHandler) receiptRoute(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("kind") != service.KindBookings {
		http.NotFound(w, r)
		return
	}
	h.Receipt(w, r, ps)
}
