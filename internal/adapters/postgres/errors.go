package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes mapped to repository sentinel errors.
const (
	UniqueViolationCode     = "23505"
	ForeignKeyViolationCode = "23503"
)

// Constraint names referenced by adapters.
const (
	TaxisNumberUniqueConstraint = "taxis_number_unique"
	TripsOneOpenPerOwnerIndex   = "trips_one_open_per_owner"
	BookingsTripForeignKey      = "bookings_trip_fk"
)

func AsPgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsViolation reports whether err is a Postgres error with the given SQLSTATE and,
// when constraint is non-empty, the given constraint name.
func IsViolation(err error, code, constraint string) bool {
	pe, ok := AsPgError(err)
	if !ok || pe.Code != code {
		return false
	}
	return constraint == "" || pe.ConstraintName == constraint
}
