package http

import (
	"net/http"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
)

type customerHandler struct {
	respond     *responder
	customerSvc service.CustomerService
}

func newCustomerHandler(respond *responder, customerSvc service.CustomerService) *customerHandler {
	return &customerHandler{
		respond:     respond,
		customerSvc: customerSvc,
	}
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type updateCustomerRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

func (h *customerHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	customer, err := h.customerSvc.CreateCustomer(r.Context(), service.CreateCustomerParams{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusCreated, customer)
}

func (h *customerHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	var req updateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	customer, err := h.customerSvc.UpdateCustomer(r.Context(), id, service.UpdateCustomerParams{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, customer)
}

func (h *customerHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	if err := h.customerSvc.DeleteCustomer(r.Context(), id); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusNoContent, nil)
}

func (h *customerHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	customer, err := h.customerSvc.GetCustomer(r.Context(), id)
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, customer)
}

func (h *customerHandler) list(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerSvc.ListCustomers(r.Context())
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, customers)
}

func (h *customerHandler) search(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerSvc.SearchCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, customers)
}
