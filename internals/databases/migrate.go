package database

import (
	"log"

	"gorm.io/gorm"

	blockModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/model"
	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	sessionModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	couponModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/model"
	planModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/model"
	paymentModel "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/model"
)

// Models lists every table owned by the service, leaf tables first.
func Models() []any {
	return []any{
		&sessionModel.SessionModel{},
		&planModel.PaymentPlanModel{},
		&planModel.BlockPackageModel{},
		&couponModel.CouponModel{},
		&couponModel.CouponUseModel{},
		&bookingModel.BookingModel{},
		&paymentModel.Payment{},
		&paymentModel.PaymentGatewayEventModel{},
		&blockModel.BlockBookingModel{},
		&blockModel.BlockBookingUsageModel{},
	}
}

// Migrate creates or updates the schema, including the unique indexes the idempotency
// guards rely on.
func Migrate(db *gorm.DB) error {
	log.Println("[INFO] Running AutoMigrate...")
	if err := db.AutoMigrate(Models()...); err != nil {
		log.Printf("[ERROR] AutoMigrate: %v", err)
		return err
	}
	log.Println("✅ AutoMigrate done.")
	return nil
}
