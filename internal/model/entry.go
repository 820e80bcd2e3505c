package model

import "time"

// Entry records a rider's registration for a race.  It is created
// unpaid and flips to paid exactly once through the payment
// simulation; no path deletes it.
//
// Fields:
//  ID             – primary key, also the rider-facing entry reference.
//  RaceID         – race being entered.
//  RiderName      – required, trimmed.
//  Email          – optional contact email.
//  Club           – optional club name ("Privateer" when unaffiliated).
//  BCID           – optional British Cycling licence number.
//  EmergencyName  – required emergency contact name.
//  EmergencyPhone – required emergency contact number.
//  Paid           – whether the (simulated) payment has completed.
//  PaidAt         – when Paid flipped to true.
//  CreatedAt      – creation timestamp.
type Entry struct {
	ID             string     // entries.id
	RaceID         string     // entries.race_id
	RiderName      string     // entries.rider_name
	Email          *string    // entries.email (nullable)
	Club           *string    // entries.club (nullable)
	BCID           *string    // entries.bc_id (nullable)
	EmergencyName  string     // entries.emergency_name
	EmergencyPhone string     // entries.emergency_phone
	Paid           bool       // entries.paid
	PaidAt         *time.Time // entries.paid_at (nullable)
	CreatedAt      time.Time  // entries.created_at
}
