package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/example/printshop/internal/api/middleware"
	"github.com/example/printshop/internal/catalog"
	"github.com/example/printshop/internal/command"
	"github.com/example/printshop/internal/domain/cart"
	"github.com/example/printshop/internal/domain/checkout"
	"github.com/example/printshop/internal/domain/material"
	"github.com/example/printshop/internal/domain/quote"
	"github.com/example/printshop/internal/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	logger       *zap.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, logger *zap.Logger) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		logger:       logger.Named("api"),
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Catalog Handlers

func (h *Handlers) GetMaterials(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListMaterials())
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListProducts())
}

func (h *Handlers) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req query.QuoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.queryHandler.Quote(req)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Cart Handlers

// addItemRequest carries either product_id or model, never both
type addItemRequest struct {
	ProductID        string           `json:"product_id"`
	Model            *addModelRequest `json:"model"`
	MaterialID       string           `json:"material_id"`
	Color            string           `json:"color"`
	InfillPercentage float64          `json:"infill_percentage"`
	LayerHeight      float64          `json:"layer_height"`
	Quantity         *int             `json:"quantity"`
	ScalePercentage  float64          `json:"scale_percentage"`
}

type addModelRequest struct {
	ID         string          `json:"id"`
	FileName   string          `json:"file_name"`
	VolumeCm3  float64         `json:"volume_cm3"`
	Dimensions cart.Dimensions `json:"dimensions"`
}

type addItemResponse struct {
	ItemID string          `json:"item_id"`
	Cart   *query.CartView `json:"cart"`
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, r, http.StatusOK)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if (req.ProductID == "") == (req.Model == nil) {
		respondError(w, "exactly one of product_id or model is required", http.StatusBadRequest)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	sessionID := middleware.GetSessionID(r.Context())

	var (
		item cart.LineItem
		err  error
	)
	if req.Model != nil {
		item, err = h.cmdHandler.AddModel(r.Context(), command.AddModel{
			SessionID:        sessionID,
			ModelID:          req.Model.ID,
			FileName:         req.Model.FileName,
			VolumeCm3:        req.Model.VolumeCm3,
			Dimensions:       req.Model.Dimensions,
			ScalePercentage:  req.ScalePercentage,
			MaterialID:       req.MaterialID,
			Color:            req.Color,
			InfillPercentage: req.InfillPercentage,
			LayerHeight:      req.LayerHeight,
			Quantity:         quantity,
		})
	} else {
		item, err = h.cmdHandler.AddProduct(r.Context(), command.AddProduct{
			SessionID:        sessionID,
			ProductID:        req.ProductID,
			MaterialID:       req.MaterialID,
			Color:            req.Color,
			InfillPercentage: req.InfillPercentage,
			LayerHeight:      req.LayerHeight,
			Quantity:         quantity,
		})
	}
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	view, err := h.queryHandler.GetCart(r.Context(), sessionID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, addItemResponse{ItemID: item.ID, Cart: view})
}

// updateItemRequest changes either the quantity or the material/color of an item
type updateItemRequest struct {
	Quantity   *int   `json:"quantity"`
	MaterialID string `json:"material_id"`
	Color      string `json:"color"`
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	sessionID := middleware.GetSessionID(r.Context())
	itemID := chi.URLParam(r, "itemID")

	reconfigure := req.MaterialID != "" || req.Color != ""

	var err error
	switch {
	case req.Quantity != nil && reconfigure:
		respondError(w, "send either quantity or material_id and color, not both", http.StatusBadRequest)
		return
	case req.Quantity != nil:
		err = h.cmdHandler.UpdateQuantity(r.Context(), command.UpdateQuantity{
			SessionID: sessionID,
			ItemID:    itemID,
			Quantity:  *req.Quantity,
		})
	case reconfigure:
		_, err = h.cmdHandler.ChangeConfiguration(r.Context(), command.ChangeConfiguration{
			SessionID:  sessionID,
			ItemID:     itemID,
			MaterialID: req.MaterialID,
			Color:      req.Color,
		})
	default:
		respondError(w, "quantity or material_id and color are required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondCart(w, r, http.StatusOK)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveItem{
		SessionID: middleware.GetSessionID(r.Context()),
		ItemID:    chi.URLParam(r, "itemID"),
	}
	if err := h.cmdHandler.RemoveItem(r.Context(), cmd); err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondCart(w, r, http.StatusOK)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.ClearCart{SessionID: middleware.GetSessionID(r.Context())}
	if err := h.cmdHandler.ClearCart(r.Context(), cmd); err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondCart(w, r, http.StatusOK)
}

// Checkout Handlers

func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.respondSummary(w, r)
}

func (h *Handlers) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var cmd command.ApplyCoupon
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.SessionID = middleware.GetSessionID(r.Context())

	if _, err := h.cmdHandler.ApplyCoupon(r.Context(), cmd); err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondSummary(w, r)
}

func (h *Handlers) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveCoupon{SessionID: middleware.GetSessionID(r.Context())}
	if err := h.cmdHandler.RemoveCoupon(r.Context(), cmd); err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondSummary(w, r)
}

// Helpers

func (h *Handlers) respondCart(w http.ResponseWriter, r *http.Request, status int) {
	view, err := h.queryHandler.GetCart(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, status, view)
}

func (h *Handlers) respondSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.queryHandler.GetSummary(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// respondErr maps domain errors to HTTP status codes. Unknown errors are logged and
// hidden behind a generic message.
func (h *Handlers) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("session_id", middleware.GetSessionID(r.Context())),
			zap.Error(err))
		respondError(w, "internal server error", status)
		return
	}
	respondError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, material.ErrMaterialNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, command.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrInvalidCoupon):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidSource),
		errors.Is(err, cart.ErrMissingSource),
		errors.Is(err, cart.ErrMissingMaterial),
		errors.Is(err, cart.ErrMissingColor),
		errors.Is(err, cart.ErrInvalidInfill),
		errors.Is(err, cart.ErrInvalidLayerHeight),
		errors.Is(err, command.ErrUnknownColor),
		errors.Is(err, command.ErrUnsupportedLayerHeight),
		errors.Is(err, command.ErrInvalidVolume),
		errors.Is(err, quote.ErrInvalidInput),
		errors.Is(err, quote.ErrUnknownPriority):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}
