package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	bookingService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/service"
	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/model"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
)

// Event types on /webhooks/payment.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventPaymentSucceeded  = "payment_intent.succeeded"
	EventPaymentFailed     = "payment_intent.payment_failed"
)

// PaymentSettler is the slice of BookingService the webhook path drives.
type PaymentSettler interface {
	MarkPaid(ctx context.Context, in bookingService.MarkPaidInput) (*bookingService.MarkPaidResult, error)
	MarkFailed(ctx context.Context, bookingID uuid.UUID) (bool, error)
	MarkSucceeded(ctx context.Context, bookingID uuid.UUID) (bool, error)
	FindByPaymentReference(ctx context.Context, ref string) (*bookingModel.BookingModel, *model.Payment, error)
}

type WebhookProcessor struct {
	DB                *gorm.DB
	Bookings          PaymentSettler
	Notifier          bookingService.Notifier // nil = no confirmation email
	Secret            string
	MidtransServerKey string
	Now               func() time.Time
}

func NewWebhookProcessor(db *gorm.DB, bookings PaymentSettler, notifier bookingService.Notifier, secret, midtransServerKey string) *WebhookProcessor {
	return &WebhookProcessor{
		DB:                db,
		Bookings:          bookings,
		Notifier:          notifier,
		Secret:            secret,
		MidtransServerKey: midtransServerKey,
		Now:               time.Now,
	}
}

func (p *WebhookProcessor) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}

/* =========================================================
   Envelope
========================================================= */

type EventMetadata struct {
	BookingID string `json:"bookingId"`
	PaymentID string `json:"paymentId"`
}

type EventObject struct {
	ID            string        `json:"id"`
	AmountTotal   int           `json:"amount_total"`
	PaymentIntent string        `json:"payment_intent"`
	Metadata      EventMetadata `json:"metadata"`
}

type Envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object EventObject `json:"object"`
	} `json:"data"`
}

// Outcome is what the controller reports back (always with 200).
type Outcome struct {
	EventID   uuid.UUID                `json:"eventId"`
	Status    model.GatewayEventStatus `json:"status"`
	Duplicate bool                     `json:"duplicate,omitempty"`
}

/* =========================================================
   Signature
========================================================= */

// VerifySignature checks a hex HMAC-SHA256 of the raw body in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign is the counterpart used by tests and local tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return "sha256:" + hex.EncodeToString(sum[:])
}

/* =========================================================
   /webhooks/payment
========================================================= */

// HandlePayment verifies, deduplicates and applies one provider event. Returned errors are
// request-level only (signature, missing secret, event log unavailable); processing failures
// are recorded on the event row and the provider is still acknowledged.
func (p *WebhookProcessor) HandlePayment(ctx context.Context, body []byte, signature string, headers map[string]string) (*Outcome, error) {
	if strings.TrimSpace(p.Secret) == "" {
		log.Printf("[ALERT] webhook secret is not configured, refusing event")
		return nil, fiber.NewError(fiber.StatusInternalServerError, "webhook secret not configured")
	}
	if !VerifySignature(p.Secret, body, signature) {
		log.Printf("[WEBHOOK] invalid signature bytes=%d", len(body))
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid signature")
	}

	var env Envelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}

	externalID := strings.TrimSpace(env.ID)
	if externalID == "" {
		externalID = bodyHash(body)
	}
	row := &model.PaymentGatewayEventModel{
		GatewayEventProvider:   model.GatewayProviderCheckout,
		GatewayEventExternalID: externalID,
		GatewayEventType:       env.Type,
		GatewayEventHeaders:    jsonOf(headers),
		GatewayEventPayload:    datatypes.JSON(body),
		GatewayEventSignature:  &signature,
		GatewayEventStatus:     model.GatewayEventStatusProcessing,
		GatewayEventTryCount:   1,
	}
	if ref := firstNonEmpty(env.Data.Object.PaymentIntent, env.Data.Object.ID); ref != "" {
		row.GatewayEventExternalRef = &ref
	}
	if id, err := uuid.Parse(env.Data.Object.Metadata.BookingID); err == nil {
		row.GatewayEventBookingID = &id
	}

	fresh, err := p.record(ctx, row)
	if err != nil {
		// belum ada efek apa pun; non-2xx supaya provider retry
		log.Printf("[ALERT] webhook event not recorded id=%s err=%v", externalID, err)
		return nil, err
	}
	if !fresh {
		log.Printf("[WEBHOOK] duplicate event id=%s type=%s", externalID, env.Type)
		return &Outcome{Status: model.GatewayEventStatusIgnored, Duplicate: true}, nil
	}

	status := p.finish(ctx, row, p.applyEnvelope(ctx, env))
	return &Outcome{EventID: row.GatewayEventID, Status: status}, nil
}

// errIgnored marks events that are acknowledged without any effect.
type errIgnored struct{ reason string }

func (e errIgnored) Error() string { return e.reason }

func (p *WebhookProcessor) applyEnvelope(ctx context.Context, env Envelope) error {
	obj := env.Data.Object
	switch env.Type {
	case EventCheckoutCompleted:
		bookingID, err := uuid.Parse(obj.Metadata.BookingID)
		if err != nil {
			return errIgnored{"missing bookingId metadata"}
		}
		in := bookingService.MarkPaidInput{
			BookingID: bookingID,
			Reference: firstNonEmpty(obj.PaymentIntent, obj.ID),
			Amount:    obj.AmountTotal,
			Method:    model.PaymentMethodGateway,
		}
		if pid, err := uuid.Parse(obj.Metadata.PaymentID); err == nil {
			in.PaymentID = &pid
		}
		if obj.ID != "" {
			ext := obj.ID
			in.ExternalID = &ext
		}
		return p.settle(ctx, in)

	case EventPaymentSucceeded, EventPaymentFailed:
		bookingID, err := uuid.Parse(obj.Metadata.BookingID)
		if err != nil {
			return errIgnored{"missing bookingId metadata"}
		}
		if env.Type == EventPaymentSucceeded {
			_, err = p.Bookings.MarkSucceeded(ctx, bookingID)
		} else {
			_, err = p.Bookings.MarkFailed(ctx, bookingID)
		}
		return err

	default:
		return errIgnored{"unhandled event type " + env.Type}
	}
}

func (p *WebhookProcessor) settle(ctx context.Context, in bookingService.MarkPaidInput) error {
	res, err := p.Bookings.MarkPaid(ctx, in)
	if err != nil {
		return err
	}
	if res.Duplicate {
		return nil
	}
	if p.Notifier != nil {
		if r := p.Notifier.SendConfirmation(ctx, res.Booking); !r.OK {
			log.Printf("[ALERT] confirmation email failed ref=%s err=%s", res.Booking.BookingReference, r.Error)
		}
		if res.EnrollmentApplied {
			p.Notifier.PublishBookingEvent(ctx, "booking.confirmed", res.Booking)
		} else {
			p.Notifier.PublishBookingEvent(ctx, "booking.payment_recorded", res.Booking)
		}
	}
	return nil
}

/* =========================================================
   /webhooks/midtrans
========================================================= */

type MidtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, refund, failure
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept / challenge / deny
	TransactionID     string `json:"transaction_id"`
}

// MidtransSignature = SHA512(order_id + status_code + gross_amount + server_key).
func MidtransSignature(n MidtransNotification, serverKey string) string {
	h := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

func (p *WebhookProcessor) HandleMidtrans(ctx context.Context, body []byte, headers map[string]string) (*Outcome, error) {
	if strings.TrimSpace(p.MidtransServerKey) == "" {
		log.Printf("[ALERT] midtrans server key is not configured, refusing notification")
		return nil, fiber.NewError(fiber.StatusInternalServerError, "midtrans not configured")
	}
	var n MidtransNotification
	if err := sonic.Unmarshal(body, &n); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	want := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if want == "" || !hmac.Equal([]byte(want), []byte(MidtransSignature(n, p.MidtransServerKey))) {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signature")
	}

	// satu order bisa kirim beberapa notifikasi (pending lalu settlement)
	externalID := firstNonEmpty(n.TransactionID, n.OrderID) + ":" + strings.ToLower(n.TransactionStatus)
	row := &model.PaymentGatewayEventModel{
		GatewayEventProvider:    model.GatewayProviderMidtrans,
		GatewayEventExternalID:  externalID,
		GatewayEventType:        n.TransactionStatus,
		GatewayEventExternalRef: &n.OrderID,
		GatewayEventHeaders:     jsonOf(headers),
		GatewayEventPayload:     datatypes.JSON(body),
		GatewayEventSignature:   &n.SignatureKey,
		GatewayEventStatus:      model.GatewayEventStatusProcessing,
		GatewayEventTryCount:    1,
	}

	fresh, err := p.record(ctx, row)
	if err != nil {
		log.Printf("[ALERT] midtrans event not recorded id=%s err=%v", externalID, err)
		return nil, err
	}
	if !fresh {
		return &Outcome{Status: model.GatewayEventStatusIgnored, Duplicate: true}, nil
	}

	status := p.finish(ctx, row, p.applyMidtrans(ctx, row, n))
	return &Outcome{EventID: row.GatewayEventID, Status: status}, nil
}

func (p *WebhookProcessor) applyMidtrans(ctx context.Context, row *model.PaymentGatewayEventModel, n MidtransNotification) error {
	b, pay, err := p.Bookings.FindByPaymentReference(ctx, n.OrderID)
	if err != nil {
		return err
	}
	if row != nil && row.GatewayEventBookingID == nil {
		row.GatewayEventBookingID = &b.BookingID
		row.GatewayEventPaymentID = &pay.PaymentID
		_ = p.DB.WithContext(ctx).Model(&model.PaymentGatewayEventModel{}).
			Where("gateway_event_id = ?", row.GatewayEventID).
			Updates(map[string]any{
				"gateway_event_booking_id": b.BookingID,
				"gateway_event_payment_id": pay.PaymentID,
			}).Error
	}

	ts := strings.ToLower(n.TransactionStatus)
	fraud := strings.ToLower(n.FraudStatus)
	switch {
	case ts == "settlement" || (ts == "capture" && (fraud == "" || fraud == "accept")):
		in := bookingService.MarkPaidInput{
			BookingID: b.BookingID,
			Reference: pay.PaymentReference,
			PaymentID: &pay.PaymentID,
			Method:    pay.PaymentMethod,
			Amount:    grossToMinor(n.GrossAmount),
		}
		if n.TransactionID != "" {
			in.ExternalID = &n.TransactionID
		}
		return p.settle(ctx, in)

	case ts == "deny" || ts == "cancel" || ts == "expire" || ts == "failure" || (ts == "capture" && fraud == "deny"):
		if err := p.DB.WithContext(ctx).Model(&model.Payment{}).
			Where("payment_id = ? AND payment_status = ?", pay.PaymentID, model.PaymentStatusPending).
			Update("payment_status", model.PaymentStatusFailed).Error; err != nil {
			return err
		}
		_, err := p.Bookings.MarkFailed(ctx, b.BookingID)
		return err

	default:
		// pending, capture+challenge, refund notifications: refunds go through the admin API
		return errIgnored{"midtrans status " + ts}
	}
}

func grossToMinor(s string) int {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return int(d.Round(0).IntPart())
}

/* =========================================================
   Event log
========================================================= */

// record inserts the dedup row; false means the provider event was seen before.
func (p *WebhookProcessor) record(ctx context.Context, row *model.PaymentGatewayEventModel) (bool, error) {
	row.GatewayEventReceivedAt = p.now()
	res := p.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (p *WebhookProcessor) finish(ctx context.Context, row *model.PaymentGatewayEventModel, procErr error) model.GatewayEventStatus {
	status := model.GatewayEventStatusSuccess
	upd := map[string]any{"gateway_event_processed_at": p.now()}

	var ign errIgnored
	switch {
	case procErr == nil:
		upd["gateway_event_error"] = nil
	case errors.As(procErr, &ign):
		status = model.GatewayEventStatusIgnored
		upd["gateway_event_error"] = ign.reason
		log.Printf("[WEBHOOK] ignored event=%s type=%s reason=%s", row.GatewayEventExternalID, row.GatewayEventType, ign.reason)
	default:
		status = model.GatewayEventStatusFailed
		upd["gateway_event_error"] = procErr.Error()
		log.Printf("[ALERT] webhook processing failed event=%s type=%s err=%v", row.GatewayEventExternalID, row.GatewayEventType, procErr)
	}
	upd["gateway_event_status"] = status

	if err := p.DB.WithContext(ctx).Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", row.GatewayEventID).
		Updates(upd).Error; err != nil {
		log.Printf("[ALERT] webhook event status not saved event=%s err=%v", row.GatewayEventID, err)
	}
	row.GatewayEventStatus = status
	if status == model.GatewayEventStatusSuccess {
		log.Printf("[WEBHOOK] processed event=%s type=%s", row.GatewayEventExternalID, row.GatewayEventType)
	}
	return status
}

// Replay re-runs a stored event (after an outage or a fix). Signatures are not re-checked:
// the payload was verified when it was first received.
func (p *WebhookProcessor) Replay(ctx context.Context, eventID uuid.UUID) (*Outcome, error) {
	var row model.PaymentGatewayEventModel
	if err := p.DB.WithContext(ctx).Take(&row, "gateway_event_id = ?", eventID).Error; err != nil {
		return nil, helper.MapDBError(err, "event not found")
	}
	if row.GatewayEventStatus == model.GatewayEventStatusSuccess {
		return nil, fiber.NewError(fiber.StatusConflict, "event already processed")
	}

	claim := p.DB.WithContext(ctx).Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ? AND gateway_event_status = ?", row.GatewayEventID, row.GatewayEventStatus).
		Updates(map[string]any{
			"gateway_event_status":    model.GatewayEventStatusProcessing,
			"gateway_event_try_count": gorm.Expr("gateway_event_try_count + 1"),
		})
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, fiber.NewError(fiber.StatusConflict, "event is being processed")
	}

	var procErr error
	switch row.GatewayEventProvider {
	case model.GatewayProviderCheckout:
		var env Envelope
		if err := sonic.Unmarshal(row.GatewayEventPayload, &env); err != nil {
			procErr = fmt.Errorf("stored payload unreadable: %w", err)
		} else {
			procErr = p.applyEnvelope(ctx, env)
		}
	case model.GatewayProviderMidtrans:
		var n MidtransNotification
		if err := sonic.Unmarshal(row.GatewayEventPayload, &n); err != nil {
			procErr = fmt.Errorf("stored payload unreadable: %w", err)
		} else {
			procErr = p.applyMidtrans(ctx, &row, n)
		}
	default:
		procErr = errIgnored{"unknown provider " + string(row.GatewayEventProvider)}
	}

	log.Printf("[WEBHOOK] replay event=%s provider=%s", row.GatewayEventID, row.GatewayEventProvider)
	status := p.finish(ctx, &row, procErr)
	return &Outcome{EventID: row.GatewayEventID, Status: status}, nil
}

type EventFilter struct {
	Status    string
	Provider  string
	BookingID *uuid.UUID
}

func (p *WebhookProcessor) ListEvents(ctx context.Context, f EventFilter, pg helper.Paging) ([]model.PaymentGatewayEventModel, int64, error) {
	q := p.DB.WithContext(ctx).Model(&model.PaymentGatewayEventModel{})
	if s := strings.ToLower(strings.TrimSpace(f.Status)); s != "" {
		q = q.Where("gateway_event_status = ?", s)
	}
	if pr := strings.ToLower(strings.TrimSpace(f.Provider)); pr != "" {
		q = q.Where("gateway_event_provider = ?", pr)
	}
	if f.BookingID != nil {
		q = q.Where("gateway_event_booking_id = ?", *f.BookingID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.PaymentGatewayEventModel
	err := q.Order("gateway_event_received_at DESC").Offset(pg.Offset).Limit(pg.Limit).Find(&rows).Error
	return rows, total, err
}

func (p *WebhookProcessor) GetEvent(ctx context.Context, id uuid.UUID) (*model.PaymentGatewayEventModel, error) {
	var row model.PaymentGatewayEventModel
	if err := p.DB.WithContext(ctx).Take(&row, "gateway_event_id = ?", id).Error; err != nil {
		return nil, helper.MapDBError(err, "event not found")
	}
	return &row, nil
}

/* =========================================================
   Utils
========================================================= */

func jsonOf(v map[string]string) datatypes.JSON {
	if len(v) == 0 {
		return nil
	}
	b, err := sonic.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
