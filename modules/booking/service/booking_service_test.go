package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "schedulesync/core/errors"
	"schedulesync/core/worker"
	authentity "schedulesync/modules/auth/entity"
	availentity "schedulesync/modules/availability/entity"
	"schedulesync/modules/booking/dto"
	"schedulesync/modules/booking/entity"
	caldto "schedulesync/modules/calendar/dto"
	notifdto "schedulesync/modules/notification/dto"
)

type fakeHostResolver struct {
	host *authentity.User
	err  *apperrors.AppError
}

func (f *fakeHostResolver) ResolveHost(_ context.Context, _ string) (*authentity.User, *apperrors.AppError) {
	return f.host, f.err
}

type fakePublisher struct {
	err   error
	calls int
	last  *caldto.CreateEventRequest
}

func (f *fakePublisher) CreateEvent(_ context.Context, _ uuid.UUID, req *caldto.CreateEventRequest) (*caldto.CreateEventResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &caldto.CreateEventResponse{
		EventID:     "evt-123",
		Title:       req.Title,
		StartTime:   req.StartTime.UTC().Format(time.RFC3339),
		EndTime:     req.EndTime.UTC().Format(time.RFC3339),
		MeetingLink: "https://meet.google.com/abc-defg-hij",
	}, nil
}

type fakeBookingRepo struct {
	createErr error
	records   []entity.BookingRecord
	listErr   error
	exists    map[string]bool
}

func (f *fakeBookingRepo) CreateBookingRecord(_ context.Context, record *entity.BookingRecord) (*entity.BookingRecord, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	f.records = append(f.records, *record)
	return record, nil
}

func (f *fakeBookingRepo) GetBookingsByHost(_ context.Context, _ uuid.UUID) ([]entity.BookingRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeBookingRepo) RecordExistsForSlot(_ context.Context, hostUserID uuid.UUID, slotID string) (bool, error) {
	return f.exists[hostUserID.String()+"/"+slotID], nil
}

type fakeNotifier struct {
	created []*notifdto.CreateNotificationRequest
	err     error
}

func (f *fakeNotifier) Create(_ context.Context, req *notifdto.CreateNotificationRequest) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, req)
	return nil
}

type fakeEnqueuer struct {
	payloads []worker.BookingConfirmedEmailPayload
}

func (f *fakeEnqueuer) EnqueueBookingConfirmedEmail(payload worker.BookingConfirmedEmailPayload) error {
	f.payloads = append(f.payloads, payload)
	return nil
}

type bookingFixture struct {
	store     *memSlotStore
	hostID    uuid.UUID
	slotID    string
	repo      *fakeBookingRepo
	publisher *fakePublisher
	notifier  *fakeNotifier
	emails    *fakeEnqueuer
	svc       BookingService
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	store := newMemSlotStore()
	hostID := uuid.New()
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	slot := testSlot(start, availentity.SlotStatusAvailable)
	store.put(hostID, slot)

	host := &authentity.User{Email: "host@example.com", DisplayName: "Ada Host"}
	host.ID = hostID

	repo := &fakeBookingRepo{exists: map[string]bool{}}
	publisher := &fakePublisher{}
	notifier := &fakeNotifier{}
	emails := &fakeEnqueuer{}

	svc := NewBookingService(
		NewBookingEngine(store),
		repo,
		&fakeHostResolver{host: host},
		publisher,
		notifier,
		emails,
	)

	return &bookingFixture{
		store:     store,
		hostID:    hostID,
		slotID:    slot.SlotID,
		repo:      repo,
		publisher: publisher,
		notifier:  notifier,
		emails:    emails,
		svc:       svc,
	}
}

func validRequest(slotID string) *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		PublicURLToken: "tok-abc",
		SlotID:         slotID,
		BookerName:     "Grace Guest",
		BookerEmail:    "grace@example.com",
	}
}

func TestBookSuccess(t *testing.T) {
	f := newBookingFixture(t)

	resp, appErr := f.svc.Book(context.Background(), validRequest(f.slotID))
	if appErr != nil {
		t.Fatalf("Book failed: %v", appErr)
	}
	if resp.EventDetails.BookingID != "evt-123" {
		t.Fatalf("booking id = %q, want evt-123", resp.EventDetails.BookingID)
	}
	if resp.EventDetails.MeetingLink == "" {
		t.Fatal("meeting link missing from response")
	}
	if resp.EventDetails.StartTime != "2026-09-02T10:00:00Z" {
		t.Fatalf("start time = %q, want 2026-09-02T10:00:00Z", resp.EventDetails.StartTime)
	}
	if len(f.repo.records) != 1 {
		t.Fatalf("records = %d, want 1", len(f.repo.records))
	}
	if len(f.notifier.created) != 1 || f.notifier.created[0].Type != notifdto.TypeBookingConfirmed {
		t.Fatalf("notification not created: %+v", f.notifier.created)
	}
	if len(f.emails.payloads) != 1 || f.emails.payloads[0].BookerEmail != "grace@example.com" {
		t.Fatalf("email not enqueued: %+v", f.emails.payloads)
	}
	if got := f.publisher.last.Attendees; len(got) != 2 {
		t.Fatalf("attendees = %v, want host and booker", got)
	}
}

func TestBookValidation(t *testing.T) {
	f := newBookingFixture(t)

	cases := []struct {
		name   string
		mutate func(*dto.CreateBookingRequest)
	}{
		{"missing token", func(r *dto.CreateBookingRequest) { r.PublicURLToken = " " }},
		{"missing slot", func(r *dto.CreateBookingRequest) { r.SlotID = "" }},
		{"missing name", func(r *dto.CreateBookingRequest) { r.BookerName = "" }},
		{"bad email", func(r *dto.CreateBookingRequest) { r.BookerEmail = "not-an-email" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest(f.slotID)
			tc.mutate(req)
			_, appErr := f.svc.Book(context.Background(), req)
			if appErr == nil || appErr.Code != apperrors.ErrInvalidInput {
				t.Fatalf("got %v, want ErrInvalidInput", appErr)
			}
		})
	}
}

func TestBookHostNotFound(t *testing.T) {
	f := newBookingFixture(t)
	svc := NewBookingService(
		NewBookingEngine(f.store),
		f.repo,
		&fakeHostResolver{err: apperrors.NewAppError(apperrors.ErrNotFound, "unknown host", nil)},
		f.publisher,
		f.notifier,
		f.emails,
	)

	_, appErr := svc.Book(context.Background(), validRequest(f.slotID))
	if appErr == nil || appErr.Code != apperrors.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", appErr)
	}
	if f.publisher.calls != 0 {
		t.Fatal("event published for unknown host")
	}
}

func TestBookSlotConflict(t *testing.T) {
	f := newBookingFixture(t)

	if _, appErr := f.svc.Book(context.Background(), validRequest(f.slotID)); appErr != nil {
		t.Fatalf("first booking failed: %v", appErr)
	}
	_, appErr := f.svc.Book(context.Background(), validRequest(f.slotID))
	if appErr == nil || appErr.Code != apperrors.ErrSlotUnavailable {
		t.Fatalf("got %v, want ErrSlotUnavailable", appErr)
	}
	if f.publisher.calls != 1 {
		t.Fatalf("publisher calls = %d, want 1", f.publisher.calls)
	}
}

func TestBookEventPublishFailureKeepsSlotBooked(t *testing.T) {
	f := newBookingFixture(t)
	f.publisher.err = errors.New("google 503")

	_, appErr := f.svc.Book(context.Background(), validRequest(f.slotID))
	if appErr == nil || appErr.Code != apperrors.ErrUpstream {
		t.Fatalf("got %v, want ErrUpstream", appErr)
	}

	doc, _ := f.store.ReadDocument(context.Background(), f.hostID)
	if got := doc.Slots[doc.Find(f.slotID)].Status; got != availentity.SlotStatusBooked {
		t.Fatalf("slot status = %q, want booked (no rollback on publish failure)", got)
	}
	if len(f.repo.records) != 0 {
		t.Fatal("record persisted despite publish failure")
	}
}

func TestBookPublishAppErrorSurfacesAsUpstream(t *testing.T) {
	f := newBookingFixture(t)
	// A host can disconnect Google Calendar between slot commit and event
	// creation. The committed slot must never surface as a not-found to the
	// guest, who would retry into a double-booking.
	f.publisher.err = apperrors.NewAppError(apperrors.ErrNotFound, "No Google Calendar connected", nil)

	_, appErr := f.svc.Book(context.Background(), validRequest(f.slotID))
	if appErr == nil || appErr.Code != apperrors.ErrUpstream {
		t.Fatalf("got %v, want ErrUpstream", appErr)
	}

	doc, _ := f.store.ReadDocument(context.Background(), f.hostID)
	if got := doc.Slots[doc.Find(f.slotID)].Status; got != availentity.SlotStatusBooked {
		t.Fatalf("slot status = %q, want booked", got)
	}
}

func TestBookRecordPersistFailure(t *testing.T) {
	f := newBookingFixture(t)
	f.repo.createErr = errors.New("db down")

	_, appErr := f.svc.Book(context.Background(), validRequest(f.slotID))
	if appErr == nil || appErr.Code != apperrors.ErrInternalServer {
		t.Fatalf("got %v, want ErrInternalServer", appErr)
	}

	doc, _ := f.store.ReadDocument(context.Background(), f.hostID)
	if got := doc.Slots[doc.Find(f.slotID)].Status; got != availentity.SlotStatusBooked {
		t.Fatalf("slot status = %q, want booked", got)
	}
}

func TestBookNotifyFailureDoesNotFailBooking(t *testing.T) {
	f := newBookingFixture(t)
	f.notifier.err = errors.New("notifications down")

	resp, appErr := f.svc.Book(context.Background(), validRequest(f.slotID))
	if appErr != nil {
		t.Fatalf("Book failed: %v", appErr)
	}
	if resp.Message == "" {
		t.Fatal("empty response message")
	}
}

func TestExportICal(t *testing.T) {
	f := newBookingFixture(t)

	if _, appErr := f.svc.Book(context.Background(), validRequest(f.slotID)); appErr != nil {
		t.Fatalf("booking failed: %v", appErr)
	}

	cal, appErr := f.svc.ExportICal(context.Background(), f.hostID)
	if appErr != nil {
		t.Fatalf("ExportICal failed: %v", appErr)
	}
	for _, want := range []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "Grace Guest", "END:VCALENDAR"} {
		if !strings.Contains(cal, want) {
			t.Fatalf("serialized calendar missing %q:\n%s", want, cal)
		}
	}
}
