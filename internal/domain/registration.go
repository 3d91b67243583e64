package domain

import "time"

type RegistrationStatus string

const (
	RegistrationPendingPayment RegistrationStatus = "pending_payment"
	RegistrationConfirmed      RegistrationStatus = "confirmed"
	RegistrationCancelled      RegistrationStatus = "cancelled"
)

// Registration is an attendee's seat request for an event. The engine only reads it
// and flips it to confirmed once payment settles.
type Registration struct {
	ID        string
	EventID   string
	Status    RegistrationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Event struct {
	ID        string
	Name      string
	Capacity  int
	Occupancy int
}
