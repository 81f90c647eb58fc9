package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/apperr"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
)

type reportHandler struct {
	respond   *responder
	reportSvc service.ReportService
}

func newReportHandler(respond *responder, reportSvc service.ReportService) *reportHandler {
	return &reportHandler{
		respond:   respond,
		reportSvc: reportSvc,
	}
}

func (h *reportHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportSvc.DashboardStats(r.Context())
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, stats)
}

func (h *reportHandler) stock(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportSvc.StockReport(r.Context(), service.StockReportParams{
		Brand:    r.URL.Query().Get("brand"),
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, report)
}

func (h *reportHandler) topSelling(w http.ResponseWriter, r *http.Request) {
	params, err := topProductsParams(r)
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	aggregates, err := h.reportSvc.TopSellingProducts(r.Context(), params)
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, aggregates)
}

func (h *reportHandler) topProfit(w http.ResponseWriter, r *http.Request) {
	params, err := topProductsParams(r)
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	aggregates, err := h.reportSvc.TopProfitProducts(r.Context(), params)
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, aggregates)
}

// topProductsParams parses the shared start/end/limit query parameters for
// the top product reports. The range defaults to the past 30 days.
func topProductsParams(r *http.Request) (service.TopProductsParams, error) {
	start, err := timeQuery(r, "start")
	if err != nil {
		return service.TopProductsParams{}, err
	}
	end, err := timeQuery(r, "end")
	if err != nil {
		return service.TopProductsParams{}, err
	}

	now := time.Now()
	params := service.TopProductsParams{
		Start: now.AddDate(0, 0, -30),
		End:   now,
	}
	if start != nil {
		params.Start = *start
	}
	if end != nil {
		params.End = *end
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return service.TopProductsParams{}, apperr.ValidationErr.WrapParent(err).WithMsg("invalid limit")
		}
		params.Limit = int32(limit)
	}

	return params, nil
}
