package taxis

import "github.com/txpress/taxi-api/internal/domain"

// MinPasswordLen is the minimum owner password length, in runes.
const MinPasswordLen = 8

// RegistrationDetails is the second step of registration.
type RegistrationDetails struct {
	FullName  string
	Password  string
	Brand     string
	SeatCount int
}

// Registered is the result of a completed registration.
type Registered struct {
	Taxi    domain.Taxi
	Session domain.AuthSession
}
