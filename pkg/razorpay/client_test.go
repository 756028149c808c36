package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bizlinkhq/bizlink-backend/pkg/config"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), config.RazorpayConfig{
		KeyID:         "rzp_test_abc123",
		KeySecret:     "order-secret",
		WebhookSecret: "webhook-secret",
		BaseURL:       baseURL,
	}, nil)
	if err != nil {
		t.Fatalf("client setup: %v", err)
	}
	return client
}

func signHex(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyOrderSignature(t *testing.T) {
	client := newTestClient(t, "")

	orderID := "order_Nxy001"
	paymentID := "pay_Nxy002"
	valid := signHex([]byte(orderID+"|"+paymentID), "order-secret")

	if !client.VerifyOrderSignature(orderID, paymentID, valid) {
		t.Fatalf("expected valid signature to verify")
	}

	// Flipping a single nibble of the signature must flip the result.
	mutated := []byte(valid)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}
	if client.VerifyOrderSignature(orderID, paymentID, string(mutated)) {
		t.Fatalf("mutated signature should not verify")
	}

	// Any change to the signed ids must flip the result too.
	if client.VerifyOrderSignature("order_Nxy009", paymentID, valid) {
		t.Fatalf("signature over different order id should not verify")
	}
	if client.VerifyOrderSignature(orderID, "pay_Nxy009", valid) {
		t.Fatalf("signature over different payment id should not verify")
	}
	if client.VerifyOrderSignature(orderID, paymentID, "") {
		t.Fatalf("empty signature should not verify")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	client := newTestClient(t, "")

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	valid := signHex(body, "webhook-secret")

	if !client.VerifyWebhookSignature(body, valid) {
		t.Fatalf("expected valid webhook signature to verify")
	}
	if client.VerifyWebhookSignature(append([]byte(" "), body...), valid) {
		t.Fatalf("signature over different body should not verify")
	}
	if client.VerifyWebhookSignature(body, signHex(body, "order-secret")) {
		t.Fatalf("webhook signature must use the webhook secret, not the key secret")
	}
}

func TestFetchPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payments/pay_123" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_abc123" || pass != "order-secret" {
			t.Fatalf("expected basic auth with key pair")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pay_123","order_id":"order_456","status":"captured","method":"upi","amount":49900,"currency":"INR","created_at":1756700000}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	payment, err := client.FetchPayment(context.Background(), "pay_123")
	if err != nil {
		t.Fatalf("fetch payment: %v", err)
	}
	if payment.OrderID != "order_456" || payment.Method != "upi" {
		t.Fatalf("unexpected payment entity: %+v", payment)
	}
	if len(payment.Raw) == 0 {
		t.Fatalf("raw entity bytes should be preserved")
	}
	if payment.PaidAt().IsZero() {
		t.Fatalf("expected paid-at conversion from epoch seconds")
	}
}

func TestFetchPaymentGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.FetchPayment(context.Background(), "pay_123"); err == nil {
		t.Fatalf("expected error on non-2xx gateway response")
	}
}

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_789","amount":99900,"currency":"INR","receipt":"sub_1","status":"created"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	order, err := client.CreateOrder(context.Background(), CreateOrderInput{
		Amount:   99900,
		Currency: "INR",
		Receipt:  "sub_1",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "order_789" {
		t.Fatalf("unexpected order id %q", order.ID)
	}

	if _, err := client.CreateOrder(context.Background(), CreateOrderInput{Currency: "INR"}); err == nil {
		t.Fatalf("expected error for non-positive amount")
	}
}
