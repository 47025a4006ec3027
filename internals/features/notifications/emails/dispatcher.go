package emails

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/bookings/model"
	sessionModel "github.com/mergimg0/ttnts121-sub004/internals/features/bookings/sessions/model"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
	"github.com/mergimg0/ttnts121-sub004/internals/helpers/dbtime"
)

// EventPublisher is satisfied by mq.Publisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type BookingEvent struct {
	Event         string    `json:"event"`
	BookingID     uuid.UUID `json:"bookingId"`
	Reference     string    `json:"reference"`
	Email         string    `json:"email"`
	ParentName    string    `json:"parentName"`
	ChildName     string    `json:"childName"`
	Phone         string    `json:"phone,omitempty"`
	SessionIDs    []string  `json:"sessionIds"`
	Amount        int       `json:"amount"`
	PaymentStatus string    `json:"paymentStatus"`
	Status        string    `json:"status,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Dispatcher renders and sends the transactional emails. Failures are logged and returned
// as a SendResult; nothing here is allowed to fail a payment or booking flow.
type Dispatcher struct {
	DB        *gorm.DB
	Sender    Sender
	Publisher EventPublisher // nil = bus disabled
	BaseURL   string
	Loc       *time.Location
}

func NewDispatcher(db *gorm.DB, sender Sender, publisher EventPublisher, baseURL string, loc *time.Location) *Dispatcher {
	if sender == nil {
		sender = LogSender{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{DB: db, Sender: sender, Publisher: publisher, BaseURL: strings.TrimRight(baseURL, "/"), Loc: loc}
}

func (d *Dispatcher) SendConfirmation(ctx context.Context, b *bookingModel.BookingModel) SendResult {
	if b == nil {
		return SendResult{Error: "missing booking"}
	}
	data := ConfirmationData{
		ParentName: firstNonEmpty(b.BookingParentFirstName, b.ParentName()),
		ChildName:  b.ChildName(),
		Reference:  b.BookingReference,
		Sessions:   d.sessionLines(ctx, b.SessionUUIDs()),
		AmountPaid: helper.FormatGBP(b.BookingAmount - b.BookingBalanceDue),
	}
	if b.BookingDiscountAmount > 0 {
		data.Discount = helper.FormatGBP(b.BookingDiscountAmount)
	}
	if b.BookingBalanceDue > 0 {
		data.BalanceDue = helper.FormatGBP(b.BookingBalanceDue)
		if b.BookingBalanceDueDate != nil {
			data.DueDate = dbtime.HumanDate(*b.BookingBalanceDueDate, time.UTC)
		}
	}
	if d.BaseURL != "" {
		data.BookingURL = d.BaseURL + "/bookings/" + b.BookingReference
	}

	subject, html, err := RenderConfirmation(data)
	return d.deliver(ctx, "confirmation", b, subject, html, err)
}

func (d *Dispatcher) SendBalanceReminder(ctx context.Context, b *bookingModel.BookingModel, payURL string) SendResult {
	if b == nil {
		return SendResult{Error: "missing booking"}
	}
	data := BalanceReminderData{
		ParentName: firstNonEmpty(b.BookingParentFirstName, b.ParentName()),
		ChildName:  b.ChildName(),
		Reference:  b.BookingReference,
		BalanceDue: helper.FormatGBP(b.BookingBalanceDue),
		PayURL:     payURL,
	}
	if b.BookingBalanceDueDate != nil {
		data.DueDate = dbtime.HumanDate(*b.BookingBalanceDueDate, time.UTC)
	}
	subject, html, err := RenderBalanceReminder(data)
	return d.deliver(ctx, "balance_reminder", b, subject, html, err)
}

func (d *Dispatcher) SendSessionReminder(ctx context.Context, b *bookingModel.BookingModel, day time.Time, sessions []sessionModel.SessionModel) SendResult {
	if b == nil {
		return SendResult{Error: "missing booking"}
	}
	lines := make([]SessionLine, 0, len(sessions))
	for i := range sessions {
		lines = append(lines, lineFor(&sessions[i]))
	}
	data := SessionReminderData{
		ParentName: firstNonEmpty(b.BookingParentFirstName, b.ParentName()),
		ChildName:  b.ChildName(),
		Date:       dbtime.HumanDate(day, time.UTC),
		Sessions:   lines,
	}
	subject, html, err := RenderSessionReminder(data)
	return d.deliver(ctx, "session_reminder", b, subject, html, err)
}

func (d *Dispatcher) SendPaymentLink(ctx context.Context, b *bookingModel.BookingModel, url string, amount int) SendResult {
	if b == nil {
		return SendResult{Error: "missing booking"}
	}
	subject, html, err := RenderPaymentLink(PaymentLinkData{
		ParentName: firstNonEmpty(b.BookingParentFirstName, b.ParentName()),
		Reference:  b.BookingReference,
		Amount:     helper.FormatGBP(amount),
		PayURL:     url,
	})
	return d.deliver(ctx, "payment_link", b, subject, html, err)
}

// PublishBookingEvent pushes a booking.* message for downstream consumers (sheet sync).
func (d *Dispatcher) PublishBookingEvent(ctx context.Context, event string, b *bookingModel.BookingModel) {
	if d.Publisher == nil || b == nil {
		return
	}
	ev := BookingEvent{
		Event:         event,
		BookingID:     b.BookingID,
		Reference:     b.BookingReference,
		Email:         b.BookingEmail,
		ParentName:    b.ParentName(),
		ChildName:     b.ChildName(),
		Phone:         b.BookingPhone,
		SessionIDs:    b.BookingSessionIDs,
		Amount:        b.BookingAmount,
		PaymentStatus: string(b.BookingPaymentStatus),
		OccurredAt:    time.Now().UTC(),
	}
	if b.BookingStatus != nil {
		ev.Status = string(*b.BookingStatus)
	}
	if err := d.Publisher.PublishJSON(ctx, event, ev); err != nil {
		log.Printf("[EVENT] ERROR publish %s ref=%s err=%v", event, b.BookingReference, err)
		return
	}
	log.Printf("[EVENT] published %s ref=%s", event, b.BookingReference)
}

func (d *Dispatcher) deliver(ctx context.Context, kind string, b *bookingModel.BookingModel, subject, html string, renderErr error) SendResult {
	if renderErr != nil {
		log.Printf("[EMAIL] ERROR render %s ref=%s err=%v", kind, b.BookingReference, renderErr)
		return SendResult{Error: renderErr.Error()}
	}
	res := d.Sender.Send(ctx, Email{To: b.BookingEmail, Subject: subject, HTML: html})
	if !res.OK {
		log.Printf("[EMAIL] FAILED %s ref=%s to=%s err=%s", kind, b.BookingReference, b.BookingEmail, res.Error)
	}
	return res
}

func (d *Dispatcher) sessionLines(ctx context.Context, ids []uuid.UUID) []SessionLine {
	if d.DB == nil || len(ids) == 0 {
		return nil
	}
	var rows []sessionModel.SessionModel
	if err := d.DB.WithContext(ctx).Where("session_id IN ?", ids).Order("session_name ASC").Find(&rows).Error; err != nil {
		log.Printf("[EMAIL] WARN load sessions err=%v", err)
		return nil
	}
	out := make([]SessionLine, 0, len(rows))
	for i := range rows {
		out = append(out, lineFor(&rows[i]))
	}
	return out
}

func lineFor(s *sessionModel.SessionModel) SessionLine {
	l := SessionLine{Name: s.SessionName}
	if s.SessionLocation != nil {
		l.Location = *s.SessionLocation
	}

	var when []string
	if wds := s.Weekdays(); len(wds) > 0 {
		names := make([]string, 0, len(wds))
		for _, wd := range wds {
			names = append(names, wd.String()+"s")
		}
		when = append(when, strings.Join(names, " & "))
	} else if s.SessionStartDate != nil {
		when = append(when, dbtime.HumanDate(*s.SessionStartDate, time.UTC))
	}
	if s.SessionStartTime != nil {
		t := *s.SessionStartTime
		if s.SessionEndTime != nil {
			t += "-" + *s.SessionEndTime
		}
		when = append(when, t)
	}
	l.When = strings.Join(when, " ")
	return l
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
