package domain

import "time"

type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "reserved"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is the single row kept per (item, reserver) pair. It is
// reactivated rather than recreated, so the pair's history stays on one row.
type Reservation struct {
	ItemID     string            `json:"item_id" dynamodbav:"item_id"`
	ReserverID string            `json:"reserver_id" dynamodbav:"reserver_id"`
	Quantity   int               `json:"quantity" dynamodbav:"quantity"`
	Status     ReservationStatus `json:"status" dynamodbav:"status"`
	CreatedAt  time.Time         `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time         `json:"updated" dynamodbav:"updated_at"`
}

func (r *Reservation) Active() bool {
	return r != nil && r.Status == ReservationReserved
}
