package testhelpers

import (
	"context"
	"sync"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application/services"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/google/uuid"
)

// NewRegistration returns an event with room and a registration awaiting payment for it.
func NewRegistration() (domain.Event, domain.Registration) {
	event := domain.Event{
		ID:       "evt-" + uuid.New().String(),
		Name:     "GopherCon Guatemala",
		Capacity: 100,
	}
	reg := domain.Registration{
		ID:        "reg-" + uuid.New().String(),
		EventID:   event.ID,
		Status:    domain.RegistrationPendingPayment,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	return event, reg
}

// InitiateCommand builds a USD card payment that every gateway accepting USD allows.
func InitiateCommand(registrationID string, gw domain.Gateway) services.InitiateCommand {
	return services.InitiateCommand{
		RegistrationID: registrationID,
		Gateway:        string(gw),
		Amount:         10000,
		Currency:       string(domain.CurrencyUSD),
		Description:    "Conference ticket",
		BillingInfo:    []byte(`{"name":"Ana López","email":"ana@example.com"}`),
		PaymentMethod:  []byte(`{"type":"card","id":"pm_card_visa"}`),
	}
}

// FixedClock is an application.Clock that only moves when told to.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now.UTC()}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type EmittedEvent struct {
	Type string
	Data domain.PaymentEventData
}

// RecordingSink is an application.EventSink that keeps everything it is given.
type RecordingSink struct {
	mu     sync.Mutex
	events []EmittedEvent
}

func (s *RecordingSink) Emit(_ context.Context, eventType string, data domain.PaymentEventData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, EmittedEvent{Type: eventType, Data: data})
}

func (s *RecordingSink) Events() []EmittedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EmittedEvent(nil), s.events...)
}

func (s *RecordingSink) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.Type)
	}
	return types
}

func (s *RecordingSink) Count(eventType string) int {
	n := 0
	for _, t := range s.Types() {
		if t == eventType {
			n++
		}
	}
	return n
}

func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
