package store

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	SeedUserEmail    = "user@test.com"
	seedUserName     = "Test User"
	seedUserPassword = "test1234"
)

// Seed creates the demo user and a few sample measurements so the dashboard
// has something to plot on a fresh database. Running it twice is a no-op.
// The password hasher is injected to keep this package free of the auth
// package's crypto dependencies.
func (s *SQLiteStore) Seed(hashPassword func(string) (string, error)) error {
	existing, err := s.GetUserByEmail(SeedUserEmail)
	if err != nil {
		return fmt.Errorf("failed to check for seed user: %w", err)
	}
	if existing != nil {
		logrus.Infof("Seed user %s already exists, skipping", SeedUserEmail)
		return nil
	}

	hash, err := hashPassword(seedUserPassword)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	name := seedUserName
	user, err := s.CreateUser(SeedUserEmail, hash, &name)
	if err != nil {
		return fmt.Errorf("failed to create seed user: %w", err)
	}

	samples := []struct {
		recordType string
		value      float64
		unit       string
	}{
		{"BPM", 72, "bpm"},
		{"BPM", 78, "bpm"},
		{"BPM", 65, "bpm"},
		{"weight", 75.5, "kg"},
	}
	for _, sample := range samples {
		if _, err := s.CreateHealthRecord(user.ID, sample.recordType, sample.value, sample.unit); err != nil {
			return fmt.Errorf("failed to create seed record %s: %w", sample.recordType, err)
		}
	}

	logrus.Infof("Seeded user %s with %d sample measurements", SeedUserEmail, len(samples))
	return nil
}
