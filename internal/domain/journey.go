package domain

import "time"

// JourneyCriteria is the route and schedule a taxi offers.
type JourneyCriteria struct {
	Origin            StandID
	Destination       StandID
	DepartureSchedule time.Time
}

// Journey is a scheduled trip offered by a taxi between two stands.
//
// Lifecycle: open (ReservedSeats may grow) -> closed (terminal), or open -> deleted via cancel
// when no booking references it.
type Journey struct {
	ID                JourneyID
	OwnerNumber       TaxiNumber
	Origin            StandID
	Destination       StandID
	DepartureSchedule time.Time
	ReservedSeats     int
	Closed            bool
}

// Cancellable reports whether a cancel affordance should be offered.
// The cancel operation itself is guarded by the booking check, not by this.
func (j Journey) Cancellable() bool { return !j.Closed && j.ReservedSeats == 0 }

// Closable reports whether a close affordance should be offered.
func (j Journey) Closable() bool { return !j.Closed }

// Booking is a rider's reservation of seats on a journey. Only its existence matters here.
type Booking struct {
	ID            BookingID
	JourneyID     JourneyID
	ReservedSeats int
}
