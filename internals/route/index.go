// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	database "github.com/mergimg0/ttnts121-sub004/internals/databases"
	blockRoute "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/route"
	blockService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/service"
	bookingRoute "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/route"
	bookingService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/service"
	sessionRoute "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/route"
	statsRoute "github.com/mergimg0/ttnts121-sub004/internals/features/dashboard/stats/route"
	statsService "github.com/mergimg0/ttnts121-sub004/internals/features/dashboard/stats/service"
	couponRoute "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/route"
	couponService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/service"
	planRoute "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/route"
	planService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/service"
	paymentRoute "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/route"
	paymentService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/service"
	middlewares "github.com/mergimg0/ttnts121-sub004/internals/middlewares"
	authMiddleware "github.com/mergimg0/ttnts121-sub004/internals/middlewares/auth"
)

// Deps: semua service dibangun sekali di main lalu di-inject ke sini.
type Deps struct {
	DB        *gorm.DB
	JWTSecret string
	Bookings  *bookingService.BookingService
	Blocks    *blockService.BlockBookingService
	Coupons   *couponService.CouponService
	Plans     *planService.PaymentPlanService
	Webhooks  *paymentService.WebhookProcessor
	Stats     *statsService.StatsService
}

var startTime time.Time

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()

	// ❤️ Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		status, httpStatus, dbStatus := "OK", fiber.StatusOK, "Connected"
		if err := database.Ping(d.DB); err != nil {
			status, httpStatus, dbStatus = "DOWN", fiber.StatusServiceUnavailable, "Database connection error"
		}
		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         status,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
		})
	})

	// ===================== WEBHOOKS (signature, tanpa JWT) =====================
	log.Println("[INFO] Setting up WEBHOOK group...")
	webhooks := app.Group("/webhooks")
	paymentRoute.WebhookRoutes(webhooks, d.Webhooks)

	// ===================== PUBLIC =====================
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api")
	public.Use("/checkout", middlewares.CheckoutRateLimiter())
	public.Use("/bookings", middlewares.LookupRateLimiter())
	sessionRoute.SessionPublicRoutes(public, d.DB)
	couponRoute.CouponPublicRoutes(public, d.Coupons)
	planRoute.PaymentPlanPublicRoutes(public, d.Plans)
	bookingRoute.BookingPublicRoutes(public, d.Bookings)

	// ===================== PRIVATE (parent) =====================
	log.Println("[INFO] Setting up PRIVATE group...")
	user := app.Group("/api/u", authMiddleware.AuthMiddleware(d.JWTSecret))
	bookingRoute.BookingUserRoutes(user, d.Bookings)
	blockRoute.BlockBookingUserRoutes(user, d.Blocks)

	// ===================== COACH =====================
	log.Println("[INFO] Setting up COACH group...")
	coach := app.Group("/api/c",
		authMiddleware.AuthMiddleware(d.JWTSecret),
		authMiddleware.OnlyRoles("coach access only", authMiddleware.RoleCoach, authMiddleware.RoleAdmin),
	)
	sessionRoute.SessionCoachRoutes(coach, d.DB)
	blockRoute.BlockBookingCoachRoutes(coach, d.Blocks)

	// ===================== ADMIN =====================
	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/admin",
		authMiddleware.AuthMiddleware(d.JWTSecret),
		authMiddleware.OnlyRoles("admin access only", authMiddleware.RoleAdmin),
	)
	sessionRoute.SessionAdminRoutes(admin, d.DB)
	couponRoute.CouponAdminRoutes(admin, d.Coupons)
	planRoute.PaymentPlanAdminRoutes(admin, d.Plans)
	bookingRoute.BookingAdminRoutes(admin, d.Bookings)
	blockRoute.BlockBookingAdminRoutes(admin, d.Blocks)
	paymentRoute.PaymentEventAdminRoutes(admin, d.Webhooks)
	statsRoute.DashboardAdminRoutes(admin, d.Stats)
}
