// Package bootstrap wires the services once per process; main and academyctl share it.
package bootstrap

import (
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mergimg0/ttnts121-sub004/internals/configs"
	blockService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/block_bookings/service"
	bookingService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/service"
	sessionService "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/service"
	statsService "github.com/mergimg0/ttnts121-sub004/internals/features/dashboard/stats/service"
	couponService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/coupons/service"
	planService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payment_plans/service"
	paymentService "github.com/mergimg0/ttnts121-sub004/internals/features/finance/payments/service"
	"github.com/mergimg0/ttnts121-sub004/internals/features/notifications/emails"
	"github.com/mergimg0/ttnts121-sub004/internals/features/notifications/scheduler"
	"github.com/mergimg0/ttnts121-sub004/internals/helpers/mq"
	routes "github.com/mergimg0/ttnts121-sub004/internals/route"
)

type Container struct {
	Config     configs.Config
	DB         *gorm.DB
	Loc        *time.Location
	Publisher  *mq.Publisher // nil = bus disabled
	Dispatcher *emails.Dispatcher
	Bookings   *bookingService.BookingService
	Blocks     *blockService.BlockBookingService
	Coupons    *couponService.CouponService
	Plans      *planService.PaymentPlanService
	Webhooks   *paymentService.WebhookProcessor
	Stats      *statsService.StatsService
	Scheduler  *scheduler.Scheduler
}

// Build constructs every client and service. External clients that are not configured
// degrade: no SMTP = log sender, no RabbitMQ = no bus, no Midtrans key = checkout 502.
func Build(cfg configs.Config, db *gorm.DB) *Container {
	loc := cfg.Location()
	c := &Container{Config: cfg, DB: db, Loc: loc}

	var sender emails.Sender = emails.LogSender{}
	if strings.TrimSpace(cfg.SMTPHost) != "" {
		sender = emails.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	}

	var publisher emails.EventPublisher
	if strings.TrimSpace(cfg.RabbitURL) != "" {
		p, err := mq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Printf("⚠️ RabbitMQ unavailable, booking events disabled: %v", err)
		} else {
			c.Publisher = p
			publisher = p
		}
	}
	c.Dispatcher = emails.NewDispatcher(db, sender, publisher, cfg.BaseURL, loc)

	var gateway bookingService.CheckoutGateway
	if strings.TrimSpace(cfg.MidtransServerKey) != "" {
		gateway = paymentService.NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransUseProd)
	}

	c.Coupons = couponService.NewCouponService(db)
	c.Plans = planService.NewPaymentPlanService(db)
	c.Bookings = bookingService.NewBookingService(db, sessionService.NewCapacityLedger(), c.Coupons, c.Plans, gateway, c.Dispatcher, loc)
	c.Blocks = blockService.NewBlockBookingService(db, c.Plans)
	c.Webhooks = paymentService.NewWebhookProcessor(db, c.Bookings, c.Dispatcher, cfg.WebhookSecret, cfg.MidtransServerKey)
	c.Stats = statsService.NewStatsService(db, cfg.StatsTTL)
	c.Scheduler = scheduler.New(c.Bookings, c.Dispatcher, c.Blocks, scheduler.Options{
		Spec:       cfg.ReminderCron,
		WithinDays: cfg.BalanceReminderDay,
		BaseURL:    cfg.BaseURL,
		Loc:        loc,
	})
	return c
}

func (c *Container) RouteDeps() routes.Deps {
	return routes.Deps{
		DB:        c.DB,
		JWTSecret: c.Config.JWTSecret,
		Bookings:  c.Bookings,
		Blocks:    c.Blocks,
		Coupons:   c.Coupons,
		Plans:     c.Plans,
		Webhooks:  c.Webhooks,
		Stats:     c.Stats,
	}
}

func (c *Container) Close() {
	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
}
