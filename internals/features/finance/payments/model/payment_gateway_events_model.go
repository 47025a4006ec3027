// file: internals/features/finance/payments/model/payment_gateway_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
  payment_gateway_events = LOG WEBHOOK + DEDUP
  - (provider, external_id) unik: event yang sama dari provider cuma diproses sekali
  - raw headers & payload disimpan untuk replay
*/

type PaymentGatewayEventModel struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;primaryKey" json:"gateway_event_id"`

	GatewayEventBookingID *uuid.UUID `gorm:"column:gateway_event_booking_id;type:uuid;index" json:"gateway_event_booking_id,omitempty"`
	GatewayEventPaymentID *uuid.UUID `gorm:"column:gateway_event_payment_id;type:uuid" json:"gateway_event_payment_id,omitempty"`

	GatewayEventProvider    PaymentGatewayProvider `gorm:"column:gateway_event_provider;type:varchar(20);not null;uniqueIndex:uq_gateway_event_provider_ext,priority:1" json:"gateway_event_provider"`
	GatewayEventExternalID  string                 `gorm:"column:gateway_event_external_id;type:varchar(160);not null;uniqueIndex:uq_gateway_event_provider_ext,priority:2" json:"gateway_event_external_id"`
	GatewayEventType        string                 `gorm:"column:gateway_event_type;type:varchar(80)" json:"gateway_event_type"`
	GatewayEventExternalRef *string                `gorm:"column:gateway_event_external_ref;type:varchar(160)" json:"gateway_event_external_ref,omitempty"`

	GatewayEventHeaders   datatypes.JSON `gorm:"column:gateway_event_headers" json:"gateway_event_headers,omitempty"`
	GatewayEventPayload   datatypes.JSON `gorm:"column:gateway_event_payload" json:"gateway_event_payload,omitempty"`
	GatewayEventSignature *string        `gorm:"column:gateway_event_signature" json:"gateway_event_signature,omitempty"`

	GatewayEventStatus   GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(16);not null;default:'received';index" json:"gateway_event_status"`
	GatewayEventError    *string            `gorm:"column:gateway_event_error" json:"gateway_event_error,omitempty"`
	GatewayEventTryCount int                `gorm:"column:gateway_event_try_count;not null;default:0" json:"gateway_event_try_count"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`

	GatewayEventCreatedAt time.Time `gorm:"column:gateway_event_created_at;autoCreateTime" json:"gateway_event_created_at"`
	GatewayEventUpdatedAt time.Time `gorm:"column:gateway_event_updated_at;autoUpdateTime" json:"gateway_event_updated_at"`
}

func (PaymentGatewayEventModel) TableName() string {
	return "payment_gateway_events"
}

func (m *PaymentGatewayEventModel) BeforeCreate(tx *gorm.DB) error {
	if m.GatewayEventID == uuid.Nil {
		m.GatewayEventID = uuid.New()
	}
	if m.GatewayEventReceivedAt.IsZero() {
		m.GatewayEventReceivedAt = time.Now().UTC()
	}
	return nil
}
