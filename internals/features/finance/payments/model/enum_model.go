package model

type PaymentStatus string
type PaymentMethod string
type PaymentGatewayProvider string
type GatewayEventStatus string

// status satu baris payment (bukan status booking)
const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

const (
	PaymentMethodGateway      PaymentMethod = "gateway"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCardTerminal PaymentMethod = "card_terminal"
	PaymentMethodPaymentLink  PaymentMethod = "payment_link"
	PaymentMethodRefund       PaymentMethod = "refund"
)

// ManualMethods are the methods an admin may record by hand.
var ManualMethods = map[PaymentMethod]bool{
	PaymentMethodCash:         true,
	PaymentMethodBankTransfer: true,
	PaymentMethodCardTerminal: true,
}

const (
	GatewayProviderCheckout PaymentGatewayProvider = "checkout" // HMAC-signed /webhooks/payment
	GatewayProviderMidtrans PaymentGatewayProvider = "midtrans"
)

const (
	GatewayEventStatusReceived   GatewayEventStatus = "received"
	GatewayEventStatusProcessing GatewayEventStatus = "processing"
	GatewayEventStatusSuccess    GatewayEventStatus = "success"
	GatewayEventStatusFailed     GatewayEventStatus = "failed"
	GatewayEventStatusIgnored    GatewayEventStatus = "ignored"
)
