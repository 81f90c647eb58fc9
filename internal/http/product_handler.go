package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/KaramanMedikalStokTakip/KSM-SUB/internal/service"
)

type productHandler struct {
	respond    *responder
	productSvc service.ProductService
}

func newProductHandler(respond *responder, productSvc service.ProductService) *productHandler {
	return &productHandler{
		respond:    respond,
		productSvc: productSvc,
	}
}

type createProductRequest struct {
	Barcode         string          `json:"barcode"`
	Name            string          `json:"name"`
	Brand           string          `json:"brand"`
	Category        string          `json:"category"`
	Quantity        int             `json:"quantity"`
	MinQuantity     int             `json:"min_quantity"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	UnitType        string          `json:"unit_type"`
	PackageQuantity int             `json:"package_quantity"`
	Description     string          `json:"description"`
}

type updateProductRequest struct {
	Name            *string          `json:"name"`
	Brand           *string          `json:"brand"`
	Category        *string          `json:"category"`
	Quantity        *int             `json:"quantity"`
	MinQuantity     *int             `json:"min_quantity"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price"`
	SalePrice       *decimal.Decimal `json:"sale_price"`
	UnitType        *string          `json:"unit_type"`
	PackageQuantity *int             `json:"package_quantity"`
	Description     *string          `json:"description"`
}

func (h *productHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Barcode:         req.Barcode,
		Name:            req.Name,
		Brand:           req.Brand,
		Category:        req.Category,
		Quantity:        req.Quantity,
		MinQuantity:     req.MinQuantity,
		PurchasePrice:   req.PurchasePrice,
		SalePrice:       req.SalePrice,
		UnitType:        req.UnitType,
		PackageQuantity: req.PackageQuantity,
		Description:     req.Description,
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusCreated, product)
}

func (h *productHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	product, err := h.productSvc.UpdateProduct(r.Context(), id, service.UpdateProductParams{
		Name:            req.Name,
		Brand:           req.Brand,
		Category:        req.Category,
		Quantity:        req.Quantity,
		MinQuantity:     req.MinQuantity,
		PurchasePrice:   req.PurchasePrice,
		SalePrice:       req.SalePrice,
		UnitType:        req.UnitType,
		PackageQuantity: req.PackageQuantity,
		Description:     req.Description,
	})
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, product)
}

func (h *productHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	if err := h.productSvc.DeleteProduct(r.Context(), id); err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusNoContent, nil)
}

func (h *productHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	product, err := h.productSvc.GetProduct(r.Context(), id)
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, product)
}

func (h *productHandler) getByBarcode(w http.ResponseWriter, r *http.Request) {
	product, err := h.productSvc.GetProductByBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, product)
}

func (h *productHandler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.productSvc.ListProducts(r.Context())
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, products)
}

func (h *productHandler) listLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.productSvc.ListLowStockProducts(r.Context())
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, products)
}

func (h *productHandler) filters(w http.ResponseWriter, r *http.Request) {
	brands, categories, err := h.productSvc.GetProductFilters(r.Context())
	if err != nil {
		h.respond.writeError(w, r, err)
		return
	}

	h.respond.writeJSON(w, r, http.StatusOK, map[string][]string{
		"brands":     brands,
		"categories": categories,
	})
}
