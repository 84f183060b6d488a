//go:build !integration

package payment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"toolix-activation/internal/config"
	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/domain/ports/adapter"
)

func TestStripeGateway_CreateCheckout(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if user, _, ok := r.BasicAuth(); !ok || user != "sk_test_1" {
			t.Errorf("expected secret key as basic auth user, got %q", user)
		}
		b, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(b))
		_, _ = w.Write([]byte(`{"id":"cs_test_1","url":"https://checkout.stripe.test/cs_test_1"}`))
	}))
	defer srv.Close()

	gw, err := NewStripeGateway("sk_test_1", srv.URL, "", time.Second)
	if err != nil {
		t.Fatalf("NewStripeGateway failed: %v", err)
	}
	plan, _ := model.LookupPlan(model.PlanMonthly)
	sess, err := gw.CreateCheckout(context.Background(), adapter.CheckoutRequest{
		Plan:       plan,
		AccountID:  "acc-1",
		SuccessURL: "https://toolix.test/success",
		CancelURL:  "https://toolix.test/#pricing",
	})
	if err != nil {
		t.Fatalf("CreateCheckout failed: %v", err)
	}
	if sess.ID != "cs_test_1" || sess.URL == "" {
		t.Errorf("unexpected session %+v", sess)
	}

	checks := map[string]string{
		"mode":                                   "payment",
		"line_items[0][price_data][unit_amount]": "400",
		"line_items[0][price_data][currency]":    "usd",
		"metadata[plan]":                         "monthly",
		"metadata[user_id]":                      "acc-1",
		"metadata[duration_hours]":               "720",
		"cancel_url":                             "https://toolix.test/#pricing",
	}
	for k, want := range checks {
		if got := form.Get(k); got != want {
			t.Errorf("%s: expected %q, got %q", k, want, got)
		}
	}
}

func TestStripeGateway_ConfirmPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/checkout/sessions/cs_paid":
			_, _ = w.Write([]byte(`{"id":"cs_paid","payment_status":"paid","amount_total":200,"metadata":{"plan":"weekly","user_id":"acc-9"}}`))
		case "/v1/checkout/sessions/cs_open":
			_, _ = w.Write([]byte(`{"id":"cs_open","payment_status":"unpaid","metadata":{}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such checkout.session"}}`))
		}
	}))
	defer srv.Close()

	gw, _ := NewStripeGateway("sk_test_1", srv.URL, "usd", time.Second)
	ctx := context.Background()

	conf, err := gw.ConfirmPayment(ctx, "cs_paid")
	if err != nil {
		t.Fatalf("ConfirmPayment failed: %v", err)
	}
	if !conf.Paid || conf.Plan != model.PlanWeekly || conf.AccountID != "acc-9" || conf.AmountMinor != 200 {
		t.Errorf("unexpected confirmation %+v", conf)
	}

	conf, err = gw.ConfirmPayment(ctx, "cs_open")
	if err != nil || conf.Paid {
		t.Errorf("expected unpaid confirmation, got %+v err=%v", conf, err)
	}

	if _, err := gw.ConfirmPayment(ctx, "cs_missing"); err == nil {
		t.Error("expected provider error for unknown session")
	}
}

func TestNewStripeGateway_RequiresKey(t *testing.T) {
	if _, err := NewStripeGateway("", "", "", 0); err == nil {
		t.Error("expected error for empty secret key")
	}
}

func TestNoopGateway(t *testing.T) {
	ctx := context.Background()
	gw := NewNoopPaymentGateway()
	plan, _ := model.LookupPlan(model.PlanYearly)

	sess, err := gw.CreateCheckout(ctx, adapter.CheckoutRequest{Plan: plan, AccountID: "acc-2"})
	if err != nil {
		t.Fatalf("CreateCheckout failed: %v", err)
	}
	conf, _ := gw.ConfirmPayment(ctx, sess.ID)
	if conf.Paid {
		t.Error("expected new session to be unpaid")
	}
	if !gw.MarkPaid(sess.ID) {
		t.Fatal("expected MarkPaid to find session")
	}
	conf, _ = gw.ConfirmPayment(ctx, sess.ID)
	if !conf.Paid || conf.Plan != model.PlanYearly || conf.AccountID != "acc-2" {
		t.Errorf("unexpected confirmation %+v", conf)
	}
	if _, err := gw.ConfirmPayment(ctx, "nope"); err == nil {
		t.Error("expected error for unknown session")
	}
}

type flakyGateway struct {
	calls int32
	err   error
}

func (f *flakyGateway) Name() string { return "flaky" }

func (f *flakyGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	atomic.AddInt32(&f.calls, 1)
	return nil, f.err
}

func (f *flakyGateway) ConfirmPayment(ctx context.Context, sessionID string) (*adapter.PaymentConfirmation, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &adapter.PaymentConfirmation{SessionID: sessionID}, nil
}

func TestBreakerGateway(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("should open after consecutive failures", func(t *testing.T) {
		inner := &flakyGateway{err: errors.New("connection refused")}
		gw := NewBreakerGateway(inner, config.BreakerConfig{FailureThreshold: 3, Timeout: time.Minute}, &logger)

		for i := 0; i < 3; i++ {
			if _, err := gw.ConfirmPayment(ctx, "cs"); err == nil || errors.Is(err, ErrCircuitOpen) {
				t.Fatalf("call %d: expected inner error, got %v", i, err)
			}
		}
		if _, err := gw.ConfirmPayment(ctx, "cs"); !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("expected ErrCircuitOpen, got %v", err)
		}
		if got := atomic.LoadInt32(&inner.calls); got != 3 {
			t.Errorf("expected open breaker to short-circuit, inner saw %d calls", got)
		}
	})

	t.Run("should pass results through while closed", func(t *testing.T) {
		inner := &flakyGateway{}
		gw := NewBreakerGateway(inner, config.BreakerConfig{}, &logger)
		conf, err := gw.ConfirmPayment(ctx, "cs_ok")
		if err != nil || conf.SessionID != "cs_ok" {
			t.Errorf("unexpected result %+v err=%v", conf, err)
		}
		if gw.Name() != "flaky" {
			t.Errorf("expected name passthrough, got %q", gw.Name())
		}
	})
}
