package httpapi

import (
	"strconv"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/txpress/taxi-api/internal/domain"
)

// Stands

type standDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type standListResponse struct {
	TaxiRanks []standDTO `json:"taxi_ranks"`
	Links     linkSet    `json:"_links"`
}

type standResponse struct {
	Stand standDTO `json:"stand"`
	Links linkSet  `json:"_links"`
}

type addStandsRequest struct {
	TaxiRanks []string `json:"taxi_ranks"`
}

func (s *Server) standDTO(st domain.Stand) standDTO {
	return standDTO{ID: s.links.stand(st.ID), Name: st.Name}
}

func (s *Server) standList(in []domain.Stand) standListResponse {
	out := make([]standDTO, 0, len(in))
	for _, st := range in {
		out = append(out, s.standDTO(st))
	}
	return standListResponse{TaxiRanks: out, Links: linkSet{"self": {Href: s.links.stands()}}}
}

// Taxis

type startRegistrationResponse struct {
	ID    string  `json:"id"`
	Links linkSet `json:"_links"`
}

type finishRegistrationRequest struct {
	Owner      string `json:"owner"`
	Password   string `json:"password"`
	CarBrand   string `json:"car_brand"`
	NumOfSeats int    `json:"num_of_seats"`
}

type finishRegistrationResponse struct {
	ID    string  `json:"id"`
	Links linkSet `json:"_links"`
}

type loginRequest struct {
	Number   string `json:"number"`
	Password string `json:"password"`
}

type ownerResponse struct {
	Name  string  `json:"name"`
	Links linkSet `json:"_links"`
}

type taxiResponse struct {
	Number        string  `json:"number"`
	Brand         string  `json:"brand"`
	NumberOfSeats int     `json:"number_of_seats"`
	Links         linkSet `json:"_links"`
}

// Journeys

type startJourneyRequest struct {
	DepartureSchedule time.Time `json:"departure_schedule"`
	DepartureID       string    `json:"departure_id"`
	ArrivalID         string    `json:"arrival_id"`
}

func (req startJourneyRequest) criteria() domain.JourneyCriteria {
	return domain.JourneyCriteria{
		Origin:            standIDFromRef(req.DepartureID),
		Destination:       standIDFromRef(req.ArrivalID),
		DepartureSchedule: req.DepartureSchedule.UTC(),
	}
}

type startJourneyResponse struct {
	ID    string  `json:"id"`
	Links linkSet `json:"_links"`
}

type journeyDTO struct {
	ID                string    `json:"id"`
	DepartureID       string    `json:"departure_id"`
	ArrivalID         string    `json:"arrival_id"`
	ReservedSeats     int       `json:"reserved_seats"`
	DepartureSchedule time.Time `json:"departure_schedule"`
	Closed            bool      `json:"closed"`
	Links             linkSet   `json:"_links"`
}

type journeyListResponse struct {
	Trips []journeyDTO `json:"trips"`
	Links linkSet      `json:"_links"`
}

// journeyDTO renders j with only the affordances its current state allows.
func (s *Server) journeyDTO(j domain.Journey) journeyDTO {
	ls := linkSet{"self": {Href: s.links.journey(j.OwnerNumber, j.ID)}}
	if j.Cancellable() {
		ls["cancel"] = link{Href: s.links.cancelJourney(j.OwnerNumber, j.ID)}
	}
	if j.Closable() {
		ls["close"] = link{Href: s.links.closeJourney(j.OwnerNumber, j.ID)}
	}
	return journeyDTO{
		ID:                string(j.ID),
		DepartureID:       s.links.stand(j.Origin),
		ArrivalID:         s.links.stand(j.Destination),
		ReservedSeats:     j.ReservedSeats,
		DepartureSchedule: j.DepartureSchedule.UTC(),
		Closed:            j.Closed,
		Links:             ls,
	}
}

// Searches

type searchCriteriaDTO struct {
	DepartureID string `json:"departure_id"`
	ArrivalID   string `json:"arrival_id"`
}

type selectedDTO struct {
	Taxi      string `json:"taxi"`
	JourneyID string `json:"journey_id"`
	Seats     int    `json:"seats"`
}

type searchResponse struct {
	ID        string                         `json:"id"`
	Criteria  searchCriteriaDTO              `json:"criteria"`
	Selection nullable.Nullable[selectedDTO] `json:"selection"`
	Links     linkSet                        `json:"_links"`
}

func (s *Server) searchResponse(sess domain.SearchSession) searchResponse {
	ls := linkSet{
		"self":  {Href: s.links.search(sess.ID)},
		"taxis": {Href: s.links.searchTaxis(sess.ID)},
	}
	sel := nullable.NewNullNullable[selectedDTO]()
	if sess.Selection != nil {
		ls["selection"] = link{Href: s.links.selection(sess.ID)}
		sel = nullable.NewNullableWithValue(selectedDTO{
			Taxi:      string(sess.Selection.TaxiNumber),
			JourneyID: string(sess.Selection.JourneyID),
			Seats:     sess.Selection.SeatCount,
		})
	}
	return searchResponse{
		ID: string(sess.ID),
		Criteria: searchCriteriaDTO{
			DepartureID: s.links.stand(sess.Criteria.DepartureStandID),
			ArrivalID:   s.links.stand(sess.Criteria.ArrivalStandID),
		},
		Selection: sel,
		Links:     ls,
	}
}

type candidateLinks struct {
	Self   link            `json:"self"`
	Select map[string]link `json:"select,omitempty"`
}

type candidateTaxiDTO struct {
	Number            string          `json:"number"`
	NumberOfSeats     int             `json:"number_of_seats"`
	Brand             string          `json:"brand"`
	DepartureSchedule time.Time       `json:"departure_schedule"`
	AvailableSeats    int             `json:"available_seats"`
	JourneyID         string          `json:"journey_id"`
	Links             *candidateLinks `json:"_links,omitempty"`
}

type taxiListResponse struct {
	Taxis []candidateTaxiDTO `json:"taxis"`
	Links linkSet            `json:"_links"`
}

type selectionResponse struct {
	Taxi          candidateTaxiDTO `json:"taxi"`
	ReservedSeats int              `json:"reserved_seats"`
	Links         linkSet          `json:"_links"`
}

func candidateDTO(c domain.CandidateTaxi) candidateTaxiDTO {
	return candidateTaxiDTO{
		Number:            string(c.Number),
		NumberOfSeats:     c.SeatCount,
		Brand:             c.Brand,
		DepartureSchedule: c.DepartureSchedule.UTC(),
		AvailableSeats:    c.AvailableSeats(),
		JourneyID:         string(c.JourneyID),
	}
}

// candidateWithLinks offers one select link per seat count the journey can still take.
func (s *Server) candidateWithLinks(id domain.SearchID, c domain.CandidateTaxi) candidateTaxiDTO {
	out := candidateDTO(c)
	cl := &candidateLinks{Self: link{Href: s.links.taxi(c.Number)}}
	if n := c.AvailableSeats(); n > 0 {
		cl.Select = make(map[string]link, n)
		for i := 1; i <= n; i++ {
			cl.Select[strconv.Itoa(i)] = link{Href: s.links.selectTaxi(id, c.Number, i, c.JourneyID)}
		}
	}
	out.Links = cl
	return out
}
