package models

import "time"

// Package is a purchasable bundle of home-visit sessions. CRUD for packages
// lives outside this service; bookings only read and freeze them.
type Package struct {
	ID             string    `bson:"id" json:"id"`
	TherapistID    string    `bson:"therapist_id" json:"therapistId"`
	Name           string    `bson:"name" json:"name"`
	Price          int64     `bson:"price" json:"price"` // minor units
	SessionCount   int       `bson:"session_count" json:"sessionCount"`
	CommissionRate int       `bson:"commission_rate" json:"commissionRate"` // percent, 0..100
	IsActive       bool      `bson:"is_active" json:"isActive"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}

// Therapist is the read-side view this service needs; profile management is
// an external collaborator.
type Therapist struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	IsActive  bool      `bson:"is_active" json:"isActive"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
