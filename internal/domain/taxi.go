package domain

// Taxi is the static description of a registered vehicle.
type Taxi struct {
	ID        TaxiID
	Number    TaxiNumber
	Brand     string
	SeatCount int
}

// Owner is the person operating a taxi. The password digest never leaves the server.
type Owner struct {
	FullName       string
	PasswordDigest string
}

// AuthSession is the client-held identity established by login or registration completion.
type AuthSession struct {
	TaxiNumber TaxiNumber `json:"taxi_number"`
	FullName   string     `json:"full_name"`
}

// Authenticated reports whether the session carries an identity at all.
func (a AuthSession) Authenticated() bool { return a.TaxiNumber != "" }

// Covers reports whether the session authorizes acting on behalf of number.
func (a AuthSession) Covers(number TaxiNumber) bool {
	return a.Authenticated() && a.TaxiNumber == NormalizeTaxiNumber(string(number))
}

// PendingRegistration is the client-held state between the two registration steps.
type PendingRegistration struct {
	ID     RegistrationID `json:"id"`
	Number TaxiNumber     `json:"number"`
}
