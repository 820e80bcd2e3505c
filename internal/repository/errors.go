// Package repository holds the hand-written SQL for every entity.
// Repositories return the sentinel errors below so that the service
// layer can tell a missing row apart from a database failure.
package repository

import "errors"

var (
	// ErrOrganiserNotFound indicates no organiser matched the lookup.
	ErrOrganiserNotFound = errors.New("organiser not found")
	// ErrEventNotFound indicates no event matched the lookup.
	ErrEventNotFound = errors.New("event not found")
	// ErrRaceNotFound indicates no race matched the lookup.
	ErrRaceNotFound = errors.New("race not found")
	// ErrEntryNotFound indicates no entry matched the lookup.
	ErrEntryNotFound = errors.New("entry not found")
)
