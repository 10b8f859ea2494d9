package domain

import "time"

// SearchCriteria is the route a rider is looking for.
type SearchCriteria struct {
	DepartureStandID StandID `json:"departure_id"`
	ArrivalStandID   StandID `json:"arrival_id"`
}

// SearchSelection correlates a search with a real journey and a seat demand.
type SearchSelection struct {
	TaxiNumber TaxiNumber `json:"taxi"`
	JourneyID  JourneyID  `json:"journey_id"`
	SeatCount  int        `json:"seats"`
}

// SearchSession is the client-held state of one rider's search.
type SearchSession struct {
	ID        SearchID         `json:"id"`
	Criteria  SearchCriteria   `json:"criteria"`
	Selection *SearchSelection `json:"selection,omitempty"`
}

// CandidateTaxi is an open journey matching a search, joined with its taxi's static data.
type CandidateTaxi struct {
	JourneyID         JourneyID
	Number            TaxiNumber
	Brand             string
	SeatCount         int
	DepartureSchedule time.Time
	ReservedSeats     int
	Closed            bool
	Origin            StandID
	Destination       StandID
}

// AvailableSeats is the number of seats not yet reserved on the journey.
func (c CandidateTaxi) AvailableSeats() int {
	if n := c.SeatCount - c.ReservedSeats; n > 0 {
		return n
	}
	return 0
}

// SelectionView is the resolved selection of a search: live taxi data plus the demanded seats.
type SelectionView struct {
	SearchID SearchID
	Taxi     CandidateTaxi
	Seats    int
}
