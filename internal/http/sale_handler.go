package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/model"
	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
)

type saleHandler struct {
	respond *responder
	saleSvc service.SaleService
}

func newSaleHandler(respond *responder, saleSvc service.SaleService) *saleHandler {
	return &saleHandler{
		respond: respond,
		saleSvc: saleSvc,
	}
}

type commitSaleItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type commitSaleRequest struct {
	CustomerID  *uuid.UUID              `json:"customer_id"`
	Items       []commitSaleItemRequest `json:"items"`
	Discount    decimal.Decimal         `json:"discount"`
	FinalAmount *decimal.Decimal        `json:"final_amount"`

	// Deferred records the sale immediately and leaves stock decrements and
	// the customer ledger update to the background reconciler.
	Deferred bool `json:"deferred"`
}

func (h *saleHandler) commit(w http.ResponseWriter, r *http.Request) {
	var req commitSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	items := make([]service.CommitSaleItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CommitSaleItemParams{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	params := service.CommitSaleParams{
		CustomerID:  req.CustomerID,
		Items:       items,
		Discount:    req.Discount,
		FinalAmount: req.FinalAmount,
	}

	var (
		sale model.Sale
		err  error
	)
	if req.Deferred {
		sale, err = h.saleSvc.CommitSaleDeferred(r.Context(), params)
	} else {
		sale, err = h.saleSvc.CommitSale(r.Context(), params)
	}
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusCreated, sale)
}

func (h *saleHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	sale, err := h.saleSvc.GetSale(r.Context(), id)
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, sale)
}

func (h *saleHandler) list(w http.ResponseWriter, r *http.Request) {
	start, err := timeQuery(r, "start")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}
	end, err := timeQuery(r, "end")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	sales, err := h.saleSvc.ListSales(r.Context(), service.ListSalesParams{
		Start: start,
		End:   end,
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, sales)
}

func (h *saleHandler) listByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	sales, err := h.saleSvc.ListSalesByCustomer(r.Context(), customerID)
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, sales)
}
