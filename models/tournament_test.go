package models

import (
	"testing"
	"time"
)

func TestRegistrationIsOpen(t *testing.T) {
	now := time.Now()
	base := Tournament{
		Status:            TournamentStatusUpcoming,
		RegistrationOpen:  now.Add(-time.Hour),
		RegistrationClose: now.Add(time.Hour),
	}

	if !base.RegistrationIsOpen(now) {
		t.Fatalf("registration must be open inside the window")
	}

	early := base
	if early.RegistrationIsOpen(now.Add(-2 * time.Hour)) {
		t.Fatalf("registration must be closed before the window opens")
	}

	late := base
	if late.RegistrationIsOpen(now.Add(2 * time.Hour)) {
		t.Fatalf("registration must be closed after the window ends")
	}

	cancelled := base
	cancelled.Status = TournamentStatusCancelled
	if cancelled.RegistrationIsOpen(now) {
		t.Fatalf("cancelled tournaments must not accept registrations")
	}

	completed := base
	completed.Status = TournamentStatusCompleted
	if completed.RegistrationIsOpen(now) {
		t.Fatalf("completed tournaments must not accept registrations")
	}
}
