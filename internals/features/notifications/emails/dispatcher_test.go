package emails

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mergimg0/ttnts121-sub004/internals/testutil"
)

type fakeSender struct {
	sent []Email
	fail bool
}

func (f *fakeSender) Send(_ context.Context, e Email) SendResult {
	f.sent = append(f.sent, e)
	if f.fail {
		return SendResult{Error: "smtp down"}
	}
	return SendResult{OK: true, ID: "id-1"}
}

type fakePublisher struct {
	keys []string
	err  error
}

func (f *fakePublisher) PublishJSON(_ context.Context, key string, _ any) error {
	f.keys = append(f.keys, key)
	return f.err
}

func TestSendConfirmation(t *testing.T) {
	db := testutil.NewDB(t)
	s := testutil.Session(t, db, "U9 Saturday Skills", 10, 0, 1500)
	b := testutil.PendingBooking(t, db, 1500, s)

	sender := &fakeSender{}
	d := NewDispatcher(db, sender, nil, "https://academy.test/", time.UTC)

	res := d.SendConfirmation(context.Background(), b)
	if !res.OK {
		t.Fatalf("SendConfirmation = %+v", res)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.To != "parent@example.com" {
		t.Errorf("To = %q", got.To)
	}
	if !strings.Contains(got.Subject, b.BookingReference) {
		t.Errorf("Subject = %q", got.Subject)
	}
	for _, want := range []string{"U9 Saturday Skills", "£15.00", "Sam Carter", "https://academy.test/bookings/" + b.BookingReference} {
		if !strings.Contains(got.HTML, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestSenderFailureIsReturnedNotRaised(t *testing.T) {
	db := testutil.NewDB(t)
	s := testutil.Session(t, db, "U10", 10, 0, 1000)
	b := testutil.PendingBooking(t, db, 1000, s)

	d := NewDispatcher(db, &fakeSender{fail: true}, nil, "", nil)
	res := d.SendPaymentLink(context.Background(), b, "https://pay.test/x", 500)
	if res.OK || res.Error != "smtp down" {
		t.Fatalf("SendPaymentLink = %+v", res)
	}
}

func TestPublishBookingEvent(t *testing.T) {
	db := testutil.NewDB(t)
	s := testutil.Session(t, db, "U11", 10, 0, 1000)
	b := testutil.PendingBooking(t, db, 1000, s)

	pub := &fakePublisher{}
	d := NewDispatcher(db, nil, pub, "", nil)
	d.PublishBookingEvent(context.Background(), "booking.confirmed", b)

	pub.err = errors.New("channel closed")
	d.PublishBookingEvent(context.Background(), "booking.cancelled", b)

	if len(pub.keys) != 2 || pub.keys[0] != "booking.confirmed" {
		t.Fatalf("published keys = %v", pub.keys)
	}
}

func TestTemplatesEscapeInput(t *testing.T) {
	_, html, err := RenderPaymentLink(PaymentLinkData{
		ParentName: "<script>x</script>",
		Reference:  "TTN-1",
		Amount:     "£5.00",
		PayURL:     "https://pay.test/1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("parent name not escaped: %s", html)
	}
}

func TestLineFor(t *testing.T) {
	db := testutil.NewDB(t)
	s := testutil.Session(t, db, "U12", 10, 0, 1000)
	sat := 6
	start, end := "09:00", "10:00"
	s.SessionDayOfWeek = &sat
	s.SessionStartTime = &start
	s.SessionEndTime = &end

	if got := lineFor(s).When; got != "Saturdays 09:00-10:00" {
		t.Fatalf("When = %q", got)
	}
}
