package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medrec/medrec/internal/middleware"
	"github.com/medrec/medrec/internal/services"
	"github.com/medrec/medrec/pkg/response"
)

// PaymentHandler serves order creation and settlement for patients.
type PaymentHandler struct {
	settlements *services.SettlementService
}

func NewPaymentHandler(settlements *services.SettlementService) *PaymentHandler {
	return &PaymentHandler{settlements: settlements}
}

type createOrderRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// POST /api/payments/orders
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}

	transaction, order, err := h.settlements.CreateOrder(requestContext(c), middleware.SubjectID(c), req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"order":       order,
		"transaction": transaction,
	})
}

// POST /api/payments/reconcile
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	var req services.ReconcileInput
	if !bindAndValidate(c, &req) {
		return
	}

	transaction, err := h.settlements.Reconcile(requestContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, transaction)
}

// GET /api/payments
func (h *PaymentHandler) List(c *gin.Context) {
	transactions, err := h.settlements.ListForPatient(requestContext(c), middleware.SubjectID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, transactions)
}
