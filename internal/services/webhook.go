package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"

	"rentals/internal/domain"
	"rentals/internal/utils"
)

// Counter names for webhook outcomes that stay invisible at the transport
// level. Duplicate delivery and unknown references are both acknowledged
// 200, so these are the only place they surface.
const (
	CounterWebhookBadSignature     = "webhook_invalid_signature"
	CounterWebhookMalformed        = "webhook_malformed_payload"
	CounterWebhookUnknownReference = "webhook_unknown_reference"
	CounterWebhookDuplicate        = "webhook_duplicate_delivery"
	CounterWebhookAlreadyTerminal  = "webhook_already_terminal"
	CounterWebhookConfirmed        = "webhook_confirmed"
	CounterWebhookMarkedFailed     = "webhook_marked_failed"
)

// VerifyWebhookSignature recomputes the HMAC-SHA512 of the exact raw body
// and compares it to the signature header in constant time.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type webhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// HandleWebhook is the asynchronous confirmation path. The only error it
// returns is SignatureError; after authentication every outcome, including
// unknown references, duplicates and malformed payloads, is a handled
// no-op so the gateway is always acknowledged and redelivery storms cannot
// build up. No-ops are counted and logged per outcome.
func (s PaymentService) HandleWebhook(ctx context.Context, secret string, body []byte, signature string) error {
	if !VerifyWebhookSignature(secret, body, signature) {
		s.count(ctx, CounterWebhookBadSignature)
		return domain.SignatureError{Msg: "invalid webhook signature"}
	}

	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		s.count(ctx, CounterWebhookMalformed)
		utils.LogEvent(s.RequestID, "webhook", "parse", "malformed payload: "+err.Error())
		return nil
	}

	var data struct {
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(evt.Data, &data); err != nil || data.Reference == "" {
		s.count(ctx, CounterWebhookMalformed)
		utils.LogEvent(s.RequestID, "webhook", "parse", "event without reference: "+evt.Event)
		return nil
	}

	switch evt.Event {
	case "charge.success":
		s.webhookConfirm(ctx, data.Reference, evt.Data)
	case "charge.failed":
		s.webhookFail(ctx, data.Reference)
	default:
		utils.LogEvent(s.RequestID, "webhook", "skip", "event="+evt.Event)
	}
	return nil
}

func (s PaymentService) webhookConfirm(ctx context.Context, reference string, raw json.RawMessage) {
	p, applied, err := s.PaymentRepo.ConfirmSuccess(reference, metadataFromRaw(raw))
	switch {
	case domain.IsNotFound(err):
		// likely a gateway misconfiguration or foreign reference
		s.count(ctx, CounterWebhookUnknownReference)
		utils.LogEvent(s.RequestID, "webhook", "confirm", "unknown reference="+reference)
	case err != nil:
		utils.LogEvent(s.RequestID, "webhook", "confirm", "error reference="+reference+": "+err.Error())
	case applied:
		s.count(ctx, CounterWebhookConfirmed)
		utils.LogEvent(s.RequestID, "webhook", "confirm", "confirmed reference="+reference)
		s.dispatchSettled(p)
	default:
		// legitimate redelivery or the verify path won the race
		s.count(ctx, CounterWebhookDuplicate)
		utils.LogEvent(s.RequestID, "webhook", "confirm", "duplicate reference="+reference)
	}
}

func (s PaymentService) webhookFail(ctx context.Context, reference string) {
	_, err := s.PaymentRepo.MarkFailed(reference)
	switch {
	case domain.IsNotFound(err):
		s.count(ctx, CounterWebhookUnknownReference)
		utils.LogEvent(s.RequestID, "webhook", "fail", "unknown reference="+reference)
	case domain.IsInvalidTransition(err):
		s.count(ctx, CounterWebhookAlreadyTerminal)
		utils.LogEvent(s.RequestID, "webhook", "fail", "already terminal reference="+reference)
	case err != nil:
		utils.LogEvent(s.RequestID, "webhook", "fail", "error reference="+reference+": "+err.Error())
	default:
		s.count(ctx, CounterWebhookMarkedFailed)
		utils.LogEvent(s.RequestID, "webhook", "fail", "marked failed reference="+reference)
	}
}
