package enums

// ReservationStatus tracks a stock hold placed at payment-intent creation.
type ReservationStatus string

const (
	ReservationStatusHeld      ReservationStatus = "HELD"
	ReservationStatusCommitted ReservationStatus = "COMMITTED"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
)

func (r ReservationStatus) String() string {
	return string(r)
}

// IsTerminal reports whether the hold can no longer change.
func (r ReservationStatus) IsTerminal() bool {
	return r == ReservationStatusCommitted || r == ReservationStatusReleased
}
