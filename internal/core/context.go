package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Lovaxcoding/Health-Track-Project/internal/store"
)

const (
	// MaxContextRecords bounds how many measurements go into the prompt.
	MaxContextRecords = 10
	// MaxContextTurns bounds how many prior chat turns go into the prompt.
	MaxContextTurns = 6

	systemPersona = "You are HealthPulse AI, a personal health assistant. " +
		"Answer in three sentences at most, and stay warm and encouraging. " +
		"Base your answer on the user's measurements and our conversation; never invent data."

	// Shown in place of a display name when the identity lookup comes back
	// empty. The turn still proceeds on measurements and history alone.
	placeholderName = "there"

	noDataMarker = "no data"
)

// ContextReader is the slice of the store the assembler needs.
type ContextReader interface {
	GetUserByID(id int64) (*store.User, error)
	GetRecentHealthRecords(userID int64, n int) ([]store.HealthRecord, error)
	GetLastNMessagesByUserID(userID int64, n int) ([]store.ChatMessage, error)
}

// ContextAssembler gathers a user's identity, recent measurements, and recent
// conversation turns and renders them into a single prompt.
type ContextAssembler struct {
	reader ContextReader
}

func NewContextAssembler(reader ContextReader) *ContextAssembler {
	return &ContextAssembler{reader: reader}
}

// BuildPrompt issues the three context reads concurrently, waits for all of
// them, and renders the prompt. A missing user record is recovered with the
// placeholder identity; a failing measurement or history read fails the turn.
func (a *ContextAssembler) BuildPrompt(ctx context.Context, userID int64, question string) (string, error) {
	var (
		user    *store.User
		records []store.HealthRecord
		history []store.ChatMessage
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		user, err = a.reader.GetUserByID(userID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = a.reader.GetRecentHealthRecords(userID, MaxContextRecords)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = a.reader.GetLastNMessagesByUserID(userID, MaxContextTurns)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("failed to gather chat context: %w", err)
	}

	return renderPrompt(user, records, history, question), nil
}

func renderPrompt(user *store.User, records []store.HealthRecord, history []store.ChatMessage, question string) string {
	var b strings.Builder
	b.WriteString(systemPersona)
	b.WriteString("\n\n")

	name := placeholderName
	email := "unknown"
	if user != nil {
		email = user.Email
		if user.Name != nil && *user.Name != "" {
			name = *user.Name
		}
	}
	fmt.Fprintf(&b, "User: %s (%s)\n", name, email)

	fmt.Fprintf(&b, "Recent measurements: [%s]\n", formatRecords(records))

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		// History arrives newest-first for windowing; restore chronological
		// order before it goes into the prompt.
		for i := len(history) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "%s: %s\n", speakerLabel(history[i].Role), history[i].Content)
		}
	}

	fmt.Fprintf(&b, "Question: %q", question)
	return b.String()
}

func formatRecords(records []store.HealthRecord) string {
	if len(records) == 0 {
		return noDataMarker
	}
	parts := make([]string, 0, len(records))
	for _, rec := range records {
		part := rec.Type + ": " + strconv.FormatFloat(rec.Value, 'f', -1, 64)
		if rec.Unit != "" {
			part += " " + rec.Unit
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func speakerLabel(role string) string {
	if role == store.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
