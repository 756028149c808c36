package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bizlinkhq/bizlink-backend/api/responses"
	razorpaywebhook "github.com/bizlinkhq/bizlink-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/bizlinkhq/bizlink-backend/pkg/errors"
	"github.com/bizlinkhq/bizlink-backend/pkg/logger"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	eventIDHeader   = "X-Razorpay-Event-Id"
)

// RazorpayWebhookService applies verified gateway events.
type RazorpayWebhookService interface {
	HandleEvent(ctx context.Context, event *razorpaywebhook.Event) error
}

type webhookVerifier interface {
	VerifyWebhookSignature(payload []byte, signature string) bool
}

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventKey string) (bool, error)
	Release(ctx context.Context, eventKey string) error
}

// RazorpayWebhook receives gateway deliveries: the raw body is verified
// against the webhook secret before anything is decoded, and each event is
// claimed in the processed-event ledger so redeliveries are acknowledged
// without re-applying.
func RazorpayWebhook(svc RazorpayWebhookService, verifier webhookVerifier, guard eventGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(signatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook signature missing"))
			return
		}
		if !verifier.VerifyWebhookSignature(payload, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid webhook signature"))
			return
		}

		var event razorpaywebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		eventKey := razorpaywebhook.EventKey(r.Header.Get(eventIDHeader), payload)

		if guard != nil {
			claimed, err := guard.CheckAndMark(ctx, eventKey)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check event ledger"))
				return
			}
			if !claimed {
				responses.WriteSuccess(w, map[string]string{"status": "already processed"})
				return
			}
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if guard != nil {
				_ = guard.Release(ctx, eventKey)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("razorpay event %s processed", event.Event))
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
