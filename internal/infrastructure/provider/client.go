package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/config"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

// HTTPProviderClient talks to the payment provider's REST API. Mutating calls
// carry an Idempotency-Key header derived from the aggregate id, so a blind
// network-level retry can never charge twice.
type HTTPProviderClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewProviderClient(cfg config.ProviderConfig) *HTTPProviderClient {
	return &HTTPProviderClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *HTTPProviderClient) ProcessPayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	url := fmt.Sprintf("%s/api/v1/payments", c.baseURL)
	body := paymentRequest{
		ReferenceID:     req.TransactionID.String(),
		OrderID:         req.OrderID.String(),
		Amount:          req.Amount.Amount().StringFixed(2),
		Currency:        req.Amount.Currency(),
		PaymentMethodID: req.PaymentMethodID.String(),
		CardToken:       req.CardToken,
		Cvv:             req.CVV,
	}

	resp, err := sendRequest[paymentRequest, paymentResponse](c, ctx, http.MethodPost, url, &body, req.TransactionID.String())
	if err != nil {
		return nil, err
	}
	return toPaymentResult(resp), nil
}

func (c *HTTPProviderClient) ProcessRefund(ctx context.Context, req ports.RefundRequest) (*ports.RefundResult, error) {
	url := fmt.Sprintf("%s/api/v1/refunds", c.baseURL)
	body := refundRequest{
		ReferenceID: req.RefundID.String(),
		PaymentID:   req.ProviderTransactionID,
		Amount:      req.Amount.Amount().StringFixed(2),
		Currency:    req.Amount.Currency(),
		Reason:      req.Reason,
	}

	resp, err := sendRequest[refundRequest, refundResponse](c, ctx, http.MethodPost, url, &body, req.RefundID.String())
	if err != nil {
		return nil, err
	}
	return toRefundResult(resp), nil
}

func (c *HTTPProviderClient) ValidateToken(ctx context.Context, token string) (bool, error) {
	url := fmt.Sprintf("%s/api/v1/tokens/validate", c.baseURL)
	body := tokenValidationRequest{Token: token}

	resp, err := sendRequest[tokenValidationRequest, tokenValidationResponse](c, ctx, http.MethodPost, url, &body, "")
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// GetPayment looks up a payment by the reference id we sent, which is the
// transaction id. The reconciler uses this to settle stuck PROCESSING rows.
func (c *HTTPProviderClient) GetPayment(ctx context.Context, transactionID uuid.UUID) (*ports.PaymentStatus, error) {
	url := fmt.Sprintf("%s/api/v1/payments/by-reference/%s", c.baseURL, transactionID)

	resp, err := sendRequest[any, paymentResponse](c, ctx, http.MethodGet, url, nil, "")
	if err != nil {
		if provErr, ok := IsProviderError(err); ok && provErr.StatusCode == http.StatusNotFound {
			// The request never reached the provider: nothing was charged.
			return &ports.PaymentStatus{Known: false}, nil
		}
		return nil, err
	}

	result := toPaymentResult(resp)
	return &ports.PaymentStatus{
		Known:                 true,
		Success:               result.Success,
		ProviderTransactionID: result.ProviderTransactionID,
		ErrorCode:             result.ErrorCode,
		ErrorMessage:          result.ErrorMessage,
	}, nil
}

func (c *HTTPProviderClient) GetRefund(ctx context.Context, refundID uuid.UUID) (*ports.RefundStatus, error) {
	url := fmt.Sprintf("%s/api/v1/refunds/by-reference/%s", c.baseURL, refundID)

	resp, err := sendRequest[any, refundResponse](c, ctx, http.MethodGet, url, nil, "")
	if err != nil {
		if provErr, ok := IsProviderError(err); ok && provErr.StatusCode == http.StatusNotFound {
			return &ports.RefundStatus{Known: false}, nil
		}
		return nil, err
	}

	result := toRefundResult(resp)
	return &ports.RefundStatus{
		Known:            true,
		Success:          result.Success,
		ProviderRefundID: result.ProviderRefundID,
		ErrorCode:        result.ErrorCode,
		ErrorMessage:     result.ErrorMessage,
	}, nil
}

func toPaymentResult(resp *paymentResponse) *ports.PaymentResult {
	if resp.Status == wireStatusSucceeded {
		return &ports.PaymentResult{
			Success:               true,
			ProviderTransactionID: resp.ID,
		}
	}
	return &ports.PaymentResult{
		Success:      false,
		ErrorCode:    resp.DeclineCode,
		ErrorMessage: resp.DeclineText,
	}
}

func toRefundResult(resp *refundResponse) *ports.RefundResult {
	if resp.Status == wireStatusSucceeded {
		return &ports.RefundResult{
			Success:          true,
			ProviderRefundID: resp.ID,
		}
	}
	return &ports.RefundResult{
		Success:      false,
		ErrorCode:    resp.DeclineCode,
		ErrorMessage: resp.DeclineText,
	}
}

func sendRequest[Req any, Resp any](c *HTTPProviderClient, ctx context.Context, method, url string, reqBody *Req, idempotencyKey string) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp providerErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &ProviderError{
			Code:       errResp.Err,
			Message:    errResp.Message,
			StatusCode: resp.StatusCode,
		}
	}

	var providerResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&providerResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &providerResp, nil
}
