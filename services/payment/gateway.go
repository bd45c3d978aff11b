package payment

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fisiocare/models"
	"fisiocare/utils"

	"go.uber.org/zap"
)

// GatewayConfig carries the process-wide gateway credentials. It is injected
// explicitly so tests can substitute different keys per case.
type GatewayConfig struct {
	BaseURL   string
	ServerKey string
	ClientKey string
	Provider  string
}

// Instructions is what the gateway returns when a charge is opened.
type Instructions struct {
	OrderID     string
	Provider    string
	Token       string
	RedirectURL string
	Instruction string // opaque structured payload, stored verbatim
	ExpiryTime  *time.Time
}

// WebhookPayload is the parsed body of an inbound payment notification.
type WebhookPayload struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	TransactionStatus string `json:"transaction_status"`
	SignatureKey      string `json:"signature_key"`

	Raw []byte `json:"-"`
}

// Gateway is the external-facing payment contract the core depends on.
type Gateway interface {
	RequestPaymentInstructions(ctx context.Context, booking *models.Booking) (*Instructions, error)
	VerifySignature(payload WebhookPayload) error
}

// HTTPGateway talks to the payment gateway's REST API.
type HTTPGateway struct {
	Config GatewayConfig
	Client *http.Client
	Logger *zap.Logger
}

func NewHTTPGateway(cfg GatewayConfig, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		Config: cfg,
		Client: &http.Client{Timeout: 15 * time.Second},
		Logger: logger,
	}
}

type chargeResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// RequestPaymentInstructions opens a charge for the booking's total price and
// returns the token/redirect pair the client app needs, plus the raw
// instruction payload for audit.
func (g *HTTPGateway) RequestPaymentInstructions(ctx context.Context, booking *models.Booking) (*Instructions, error) {
	body, err := json.Marshal(map[string]interface{}{
		"transaction_details": map[string]interface{}{
			"order_id":     booking.PaymentOrderID,
			"gross_amount": booking.TotalPrice,
		},
		"customer_details": map[string]interface{}{
			"patient_id": booking.PatientID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Config.BaseURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(g.Config.ServerKey, "")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read charge response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.Logger.Warn("gateway rejected charge",
			zap.Int("status", resp.StatusCode),
			zap.String("orderId", booking.PaymentOrderID),
		)
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var charge chargeResponse
	if err := json.Unmarshal(raw, &charge); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}

	expiry := time.Now().Add(24 * time.Hour)
	return &Instructions{
		OrderID:     booking.PaymentOrderID,
		Provider:    g.Config.Provider,
		Token:       charge.Token,
		RedirectURL: charge.RedirectURL,
		Instruction: string(raw),
		ExpiryTime:  &expiry,
	}, nil
}

// VerifySignature checks the gateway's SHA-512 keyed signature:
// sha512(order_id + status_code + gross_amount + server_key), compared
// case-insensitively against the payload's signature_key field.
func (g *HTTPGateway) VerifySignature(payload WebhookPayload) error {
	expected := SignWebhook(payload.OrderID, payload.StatusCode, payload.GrossAmount, g.Config.ServerKey)
	if payload.SignatureKey == "" || !strings.EqualFold(payload.SignatureKey, expected) {
		return &utils.SignatureError{}
	}
	return nil
}

// SignWebhook computes the gateway webhook signature for the given fields.
func SignWebhook(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// FormatGrossAmount renders an int64 minor-unit amount in the gateway's
// two-decimal string form.
func FormatGrossAmount(amount int64) string {
	return strconv.FormatInt(amount, 10) + ".00"
}
