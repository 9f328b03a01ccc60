package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
)

const (
	maxBodyBytes     = 1 << 20
	defaultListLimit = 20
	maxListLimit     = 100
)

type handlers struct {
	checkout CheckoutProcessor
	reader   OrderReader
	lister   domain.OrderLister
	logger   *log.Entry
}

func (h *handlers) checkoutOrder(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.WithField("request_id", middleware.GetReqID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req checkoutRequest
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cart, err := req.toCart()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.checkout.ProcessOrder(r.Context(), cart, req.PaymentToken)
	if err != nil {
		var notifyErr *checkout.NotificationError
		switch {
		case domain.IsValidation(err):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &notifyErr):
			// Деньги списаны и заказ сохранён: отдаём ID для сверки.
			logger.WithError(err).WithField("order_id", notifyErr.OrderID).Error("checkout finished without confirmation email")
			respondJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "order created but confirmation email failed",
				OrderID: notifyErr.OrderID,
			})
		default:
			logger.WithError(err).Error("checkout failed")
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	if order == nil {
		respondError(w, http.StatusPaymentRequired, "payment declined")
		return
	}

	w.Header().Set("Location", "/v1/orders/"+order.ID)
	respondJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (h *handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := h.reader.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.WithError(err).WithField("order_id", id).Error("get order failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *handlers) listOrders(w http.ResponseWriter, r *http.Request) {
	customer := strings.TrimSpace(r.URL.Query().Get("customer"))
	if customer == "" {
		respondError(w, http.StatusBadRequest, "customer query parameter is required")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxListLimit)
	}

	orders, err := h.lister.ListByCustomer(r.Context(), customer, limit)
	if err != nil {
		h.logger.WithError(err).WithField("customer", customer).Error("list orders failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, newOrderResponse(order))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"orders": resp})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
