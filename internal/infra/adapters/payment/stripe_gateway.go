// File: internal/infra/adapters/payment/stripe_gateway.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

const defaultStripeBase = "https://api.stripe.com"

// StripeGateway implements adapter.PaymentGateway against the Stripe Checkout REST API.
type StripeGateway struct {
	secretKey string
	baseURL   string
	currency  string
	client    *http.Client
}

func NewStripeGateway(secretKey, baseURL, currency string, timeout time.Duration) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key empty")
	}
	if baseURL == "" {
		baseURL = defaultStripeBase
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid stripe base url: %w", err)
	}
	if currency == "" {
		currency = "usd"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &StripeGateway{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		currency:  strings.ToLower(currency),
		client:    &http.Client{Timeout: timeout},
	}, nil
}

func (s *StripeGateway) Name() string { return "stripe" }

type stripeSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCheckout opens a one-time payment session with plan and account metadata.
func (s *StripeGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", s.currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.Plan.PriceMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", "Toolix Pro - "+req.Plan.Name)
	form.Set("line_items[0][price_data][product_data][description]", "Premium access for "+req.Plan.Label)
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("metadata[plan]", string(req.Plan.ID))
	form.Set("metadata[duration_hours]", strconv.Itoa(req.Plan.DurationHours))
	if req.AccountID != "" {
		form.Set("metadata[user_id]", req.AccountID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out stripeSession
	if err := s.do(httpReq, &out); err != nil {
		return nil, err
	}
	if out.ID == "" || out.URL == "" {
		return nil, errors.New("stripe: checkout session missing id or url")
	}
	return &adapter.CheckoutSession{ID: out.ID, URL: out.URL}, nil
}

// ConfirmPayment retrieves the session; only payment_status "paid" counts.
func (s *StripeGateway) ConfirmPayment(ctx context.Context, sessionID string) (*adapter.PaymentConfirmation, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}

	var out stripeSession
	if err := s.do(httpReq, &out); err != nil {
		return nil, err
	}
	return &adapter.PaymentConfirmation{
		SessionID:   out.ID,
		Paid:        out.PaymentStatus == "paid",
		Plan:        model.PlanID(out.Metadata["plan"]),
		AccountID:   out.Metadata["user_id"],
		AmountMinor: out.AmountTotal,
	}, nil
}

func (s *StripeGateway) do(req *http.Request, out any) error {
	req.SetBasicAuth(s.secretKey, "")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var se stripeError
		if json.Unmarshal(body, &se) == nil && se.Error.Message != "" {
			return fmt.Errorf("stripe http %d: %s", resp.StatusCode, se.Error.Message)
		}
		return fmt.Errorf("stripe http %d", resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}
