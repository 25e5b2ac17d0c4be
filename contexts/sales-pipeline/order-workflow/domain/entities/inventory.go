package entities

import "time"

type ReservationStatus string

const (
	ReservationStatusHeld     ReservationStatus = "held"
	ReservationStatusBooked   ReservationStatus = "booked"
	ReservationStatusReleased ReservationStatus = "released"
)

// SlotCounter tracks one sellable unit at (show, air date, placement type).
// Invariant: Available + Reserved + Booked == Total at all times; buckets move
// only through paired increment/decrement operations.
type SlotCounter struct {
	OrgID         string
	ShowID        string
	AirDate       string
	PlacementType string
	Total         int
	Available     int
	Reserved      int
	Booked        int
}

func (s SlotCounter) Consistent() bool {
	return s.Available >= 0 &&
		s.Reserved >= 0 &&
		s.Booked >= 0 &&
		s.Available+s.Reserved+s.Booked == s.Total
}

type Reservation struct {
	ReservationID string
	OrgID         string
	CampaignID    string
	ShowID        string
	AirDate       string
	PlacementType string
	Status        ReservationStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
