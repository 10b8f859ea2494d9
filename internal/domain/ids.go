package domain

// TaxiNumber is the natural key of a taxi (its licence plate).
// Stored and compared in normalized (trimmed, lowercase) form.
type TaxiNumber string

// TaxiID is an internal identifier for a taxi record.
type TaxiID string

// StandID identifies a taxi rank.
type StandID string

// JourneyID identifies a journey offered by a taxi.
type JourneyID string

// BookingID identifies a rider's booking on a journey.
type BookingID string

// SearchID identifies a client-held search session.
type SearchID string

// RegistrationID identifies a pending (client-held) taxi registration.
type RegistrationID string
