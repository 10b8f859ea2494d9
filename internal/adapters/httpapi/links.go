package httpapi

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/txpress/taxi-api/internal/domain"
)

type link struct {
	Href string `json:"href"`
}

type linkSet map[string]link

// links builds absolute resource URLs from the public base URL.
type links struct {
	base string
}

func newLinks(baseURL string) links {
	return links{base: strings.TrimRight(baseURL, "/")}
}

func (l links) stands() string { return l.base + "/taxi-ranks" }

func (l links) stand(id domain.StandID) string {
	return l.base + "/taxi-ranks/" + url.PathEscape(string(id))
}

func (l links) taxi(n domain.TaxiNumber) string {
	return l.base + "/taxis/" + url.PathEscape(string(n))
}

func (l links) owner(n domain.TaxiNumber) string { return l.taxi(n) + "/owner" }

func (l links) registrationComplete(id domain.RegistrationID) string {
	return l.base + "/taxis/registration/" + url.PathEscape(string(id)) + "/complete"
}

func (l links) startJourney(n domain.TaxiNumber) string { return l.taxi(n) + "/start-journey" }

func (l links) journeys(n domain.TaxiNumber) string { return l.taxi(n) + "/trips" }

func (l links) inProgressJourney(n domain.TaxiNumber) string {
	return l.taxi(n) + "/in-progress-journey"
}

func (l links) journey(n domain.TaxiNumber, id domain.JourneyID) string {
	return l.taxi(n) + "/journey/" + url.PathEscape(string(id))
}

func (l links) cancelJourney(n domain.TaxiNumber, id domain.JourneyID) string {
	return l.journey(n, id) + "/cancel"
}

func (l links) closeJourney(n domain.TaxiNumber, id domain.JourneyID) string {
	return l.journey(n, id) + "/close"
}

func (l links) search(id domain.SearchID) string {
	return l.base + "/searches/" + url.PathEscape(string(id))
}

func (l links) searchTaxis(id domain.SearchID) string { return l.search(id) + "/taxis" }

func (l links) selection(id domain.SearchID) string { return l.search(id) + "/selection" }

func (l links) selectTaxi(id domain.SearchID, n domain.TaxiNumber, seats int, journeyID domain.JourneyID) string {
	q := url.Values{"journey": []string{string(journeyID)}}
	return l.search(id) + "/taxi/" + url.PathEscape(string(n)) + "/seats/" + strconv.Itoa(seats) + "/select?" + q.Encode()
}

// ownerLinks are the affordances of an authenticated taxi owner.
func (l links) ownerLinks(n domain.TaxiNumber) linkSet {
	return linkSet{
		"self":                {Href: l.owner(n)},
		"start-journey":       {Href: l.startJourney(n)},
		"trips":               {Href: l.journeys(n)},
		"journey_in_progress": {Href: l.inProgressJourney(n)},
	}
}

// standIDFromRef accepts either a bare stand id or a stand URL and returns the id,
// in canonical uuid form when it parses as one.
func standIDFromRef(ref string) domain.StandID {
	ref = strings.TrimRight(strings.TrimSpace(ref), "/")
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		ref = ref[i+1:]
	}
	if id, err := uuid.Parse(ref); err == nil {
		return domain.StandID(id.String())
	}
	return domain.StandID(ref)
}
