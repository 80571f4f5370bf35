package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"storefront/internal/model"
	"storefront/internal/mw"
	"storefront/internal/service"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*service.CreateOrderResult, error)
	UpdateStatus(ctx context.Context, p model.Principal, orderID int64, to model.Status) (*model.Order, error)
	Cancel(ctx context.Context, p model.Principal, orderID int64) (*model.Order, error)
	GetOrder(ctx context.Context, p model.Principal, orderID int64) (*model.Order, error)
	ListUserOrders(ctx context.Context, userID int64) ([]model.Order, error)
	ListAddresses(ctx context.Context, userID int64) ([]model.ShippingAddress, error)
	ListOrders(ctx context.Context, limit int) ([]model.Order, error)
}

type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, orderRef, paymentRef, signature string) error
}

type createOrderRequest struct {
	Amount  decimal.Decimal       `json:"amount"`
	Items   []model.OrderItem     `json:"items"`
	Address model.ShippingAddress `json:"address"`
}

type verifyPaymentRequest struct {
	GatewayOrderRef   string `json:"gatewayOrderRef"`
	GatewayPaymentRef string `json:"gatewayPaymentRef"`
	Signature         string `json:"signature"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	Message string       `json:"message"`
	Order   *model.Order `json:"order"`
}

func CreateOrderHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := mw.PrincipalFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		var req createOrderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}

		res, err := orderSvc.CreateOrder(r.Context(), service.CreateOrderInput{
			UserID:  p.UserID,
			Amount:  req.Amount,
			Items:   req.Items,
			Address: req.Address,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, res)
	}
}

func VerifyPaymentHandler(verifier PaymentVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyPaymentRequest
		if err := decodeJSON(w, r, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}

		if err := verifier.VerifyPayment(r.Context(), req.GatewayOrderRef, req.GatewayPaymentRef, req.Signature); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "payment verified"})
	}
}

func UpdateStatusHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := mw.PrincipalFromContext(r.Context())
		id, ok := orderID(w, r)
		if !ok {
			return
		}

		var req updateStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		status, err := model.ParseStatus(req.Status)
		if err != nil {
			badRequest(w, err.Error())
			return
		}

		order, err := orderSvc.UpdateStatus(r.Context(), p, id, status)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, orderResponse{Message: "order status updated", Order: order})
	}
}

func CancelOrderHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := mw.PrincipalFromContext(r.Context())
		id, ok := orderID(w, r)
		if !ok {
			return
		}

		order, err := orderSvc.Cancel(r.Context(), p, id)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, orderResponse{Message: "order cancelled", Order: order})
	}
}

func GetOrderHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := mw.PrincipalFromContext(r.Context())
		id, ok := orderID(w, r)
		if !ok {
			return
		}

		order, err := orderSvc.GetOrder(r.Context(), p, id)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}

func ListOrdersHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := mw.PrincipalFromContext(r.Context())

		orders, err := orderSvc.ListUserOrders(r.Context(), p.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, orders)
	}
}

func ListAddressesHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := mw.PrincipalFromContext(r.Context())

		addresses, err := orderSvc.ListAddresses(r.Context(), p.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, addresses)
	}
}

func AdminListOrdersHandler(orderSvc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				badRequest(w, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		orders, err := orderSvc.ListOrders(r.Context(), limit)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, orders)
	}
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid order id")
		return 0, false
	}
	return id, true
}
