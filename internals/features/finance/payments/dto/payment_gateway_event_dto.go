package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/model"
)

// PaymentGatewayEventResponse hides raw headers and signature from the admin listing.
type PaymentGatewayEventResponse struct {
	GatewayEventID          uuid.UUID                    `json:"gateway_event_id"`
	GatewayEventBookingID   *uuid.UUID                   `json:"gateway_event_booking_id,omitempty"`
	GatewayEventPaymentID   *uuid.UUID                   `json:"gateway_event_payment_id,omitempty"`
	GatewayEventProvider    model.PaymentGatewayProvider `json:"gateway_event_provider"`
	GatewayEventExternalID  string                       `json:"gateway_event_external_id"`
	GatewayEventType        string                       `json:"gateway_event_type"`
	GatewayEventExternalRef *string                      `json:"gateway_event_external_ref,omitempty"`
	GatewayEventStatus      model.GatewayEventStatus     `json:"gateway_event_status"`
	GatewayEventError       *string                      `json:"gateway_event_error,omitempty"`
	GatewayEventTryCount    int                          `json:"gateway_event_try_count"`
	GatewayEventReceivedAt  time.Time                    `json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time                   `json:"gateway_event_processed_at,omitempty"`

	// hanya di detail
	GatewayEventPayload datatypes.JSON `json:"gateway_event_payload,omitempty"`
}

func FromModel(m *model.PaymentGatewayEventModel, withPayload bool) PaymentGatewayEventResponse {
	out := PaymentGatewayEventResponse{
		GatewayEventID:          m.GatewayEventID,
		GatewayEventBookingID:   m.GatewayEventBookingID,
		GatewayEventPaymentID:   m.GatewayEventPaymentID,
		GatewayEventProvider:    m.GatewayEventProvider,
		GatewayEventExternalID:  m.GatewayEventExternalID,
		GatewayEventType:        m.GatewayEventType,
		GatewayEventExternalRef: m.GatewayEventExternalRef,
		GatewayEventStatus:      m.GatewayEventStatus,
		GatewayEventError:       m.GatewayEventError,
		GatewayEventTryCount:    m.GatewayEventTryCount,
		GatewayEventReceivedAt:  m.GatewayEventReceivedAt,
		GatewayEventProcessedAt: m.GatewayEventProcessedAt,
	}
	if withPayload {
		out.GatewayEventPayload = m.GatewayEventPayload
	}
	return out
}

func FromModels(rows []model.PaymentGatewayEventModel) []PaymentGatewayEventResponse {
	out := make([]PaymentGatewayEventResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i], false))
	}
	return out
}
