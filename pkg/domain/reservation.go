package domain

import "time"

// Status is the inspection verdict on a reservation.
type Status string

const (
	StatusPending     Status = "pending"
	StatusQualified   Status = "qualified"
	StatusUnqualified Status = "unqualified"
)

// Checked reports whether an inspector has already recorded a verdict.
func (s Status) Checked() bool {
	return s == StatusQualified || s == StatusUnqualified
}

// RoomKey identifies a reservation for update purposes. The backend has no
// surrogate ID; building + room number is the natural identity.
type RoomKey struct {
	Building   string
	RoomNumber string
}

func (k RoomKey) String() string {
	return k.Building + "-" + k.RoomNumber
}

// Reservation is a room check-out inspection request.
type Reservation struct {
	Building   string    `json:"building"`
	Floor      string    `json:"floor"`
	RoomNumber string    `json:"room_number"`
	Status     Status    `json:"status"`
	Inspector  string    `json:"inspector,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Key returns the update identity of the reservation.
func (r Reservation) Key() RoomKey {
	return RoomKey{Building: r.Building, RoomNumber: r.RoomNumber}
}

// Label renders the display name, e.g. "A1-101".
func (r Reservation) Label() string {
	return r.Building + "-" + r.RoomNumber
}
