package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/service"
)

// Handlers exposes the ledger's read side plus the two operations that are
// driven by people rather than order events: refunds and saved instruments.
type Handlers struct {
	refunds *service.RefundTransactionService
	queries *service.QueryService
	methods *service.PaymentMethodService
	logger  *slog.Logger
}

func NewHandlers(
	refunds *service.RefundTransactionService,
	queries *service.QueryService,
	methods *service.PaymentMethodService,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		refunds: refunds,
		queries: queries,
		methods: methods,
		logger:  logger,
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/transactions/{id}", h.getTransaction)
	mux.HandleFunc("GET /api/v1/transactions/{id}/refunds", h.listRefunds)
	mux.HandleFunc("POST /api/v1/transactions/{id}/refunds", h.createRefund)
	mux.HandleFunc("GET /api/v1/orders/{orderID}/transaction", h.getTransactionByOrder)
	mux.HandleFunc("GET /api/v1/users/{userID}/transactions", h.listUserTransactions)
	mux.HandleFunc("GET /api/v1/payment-methods", h.listPaymentMethods)
	mux.HandleFunc("GET /api/v1/users/{userID}/payment-methods", h.listUserPaymentMethods)
	mux.HandleFunc("POST /api/v1/users/{userID}/payment-methods", h.saveUserPaymentMethod)
}

func (h *Handlers) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	tx, err := h.queries.GetTransaction(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: toTransactionResponse(tx)})
}

func (h *Handlers) getTransactionByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	tx, err := h.queries.GetTransactionByOrder(r.Context(), orderID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: toTransactionResponse(tx)})
}

func (h *Handlers) listUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	txs, err := h.queries.GetTransactionsByUser(r.Context(), userID, limit, offset)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: out})
}

func (h *Handlers) listRefunds(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	refunds, err := h.queries.GetRefundsByTransaction(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	out := make([]refundResponse, 0, len(refunds))
	for _, refund := range refunds {
		out = append(out, toRefundResponse(refund))
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: out})
}

func (h *Handlers) createRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, domain.NewValidationError("invalid request body"), h.logger)
		return
	}

	refund, err := h.refunds.Refund(r.Context(), service.RefundTransactionCommand{
		TransactionID: id,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Reason:        req.Reason,
	})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: toRefundResponse(refund)})
}

func (h *Handlers) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	var (
		methods []*domain.PaymentMethod
		err     error
	)
	if typeFilter := r.URL.Query().Get("type"); typeFilter != "" {
		methods, err = h.methods.ListPaymentMethodsByType(r.Context(), domain.PaymentMethodType(typeFilter))
	} else {
		methods, err = h.methods.ListActivePaymentMethods(r.Context())
	}
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	out := make([]paymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		out = append(out, toPaymentMethodResponse(m))
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: out})
}

func (h *Handlers) listUserPaymentMethods(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	saved, err := h.methods.ListUserPaymentMethods(r.Context(), userID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	out := make([]userPaymentMethodResponse, 0, len(saved))
	for _, m := range saved {
		out = append(out, toUserPaymentMethodResponse(m))
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: out})
}

func (h *Handlers) saveUserPaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	var req saveUserPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, domain.NewValidationError("invalid request body"), h.logger)
		return
	}

	saved, err := h.methods.SaveUserPaymentMethod(r.Context(), service.SaveUserPaymentMethodCommand{
		ExternalUserID:  userID,
		PaymentMethodID: req.PaymentMethodID,
		ProviderToken:   req.ProviderToken,
		MaskedDetails:   req.MaskedDetails,
		IsDefault:       req.IsDefault,
	})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: toUserPaymentMethodResponse(saved)})
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError("invalid " + name + " in path")
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
