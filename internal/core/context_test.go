package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lovaxcoding/Health-Track-Project/internal/store"
)

type fakeReader struct {
	user    *store.User
	records []store.HealthRecord
	history []store.ChatMessage

	userErr    error
	recordsErr error
	historyErr error
}

func (f *fakeReader) GetUserByID(int64) (*store.User, error) {
	return f.user, f.userErr
}

func (f *fakeReader) GetRecentHealthRecords(int64, int) ([]store.HealthRecord, error) {
	return f.records, f.recordsErr
}

func (f *fakeReader) GetLastNMessagesByUserID(int64, int) ([]store.ChatMessage, error) {
	return f.history, f.historyErr
}

func namedUser(name string) *store.User {
	return &store.User{ID: 1, Email: "user@test.com", Name: &name, CreatedAt: time.Now()}
}

func TestBuildPromptFullContext(t *testing.T) {
	reader := &fakeReader{
		user: namedUser("Alice"),
		records: []store.HealthRecord{
			{Type: "BPM", Value: 72, Unit: "bpm"},
			{Type: "weight", Value: 75.5, Unit: "kg"},
		},
		history: []store.ChatMessage{
			// Newest first, as the store returns them.
			{Role: store.RoleAssistant, Content: "Hello Alice!"},
			{Role: store.RoleUser, Content: "Hi"},
		},
	}

	prompt, err := NewContextAssembler(reader).BuildPrompt(context.Background(), 1, "How am I doing?")
	require.NoError(t, err)

	assert.Contains(t, prompt, "User: Alice (user@test.com)")
	assert.Contains(t, prompt, "Recent measurements: [BPM: 72 bpm, weight: 75.5 kg]")
	assert.Contains(t, prompt, `Question: "How am I doing?"`)

	// History must come out in chronological order.
	userLine := strings.Index(prompt, "User: Hi")
	assistantLine := strings.Index(prompt, "Assistant: Hello Alice!")
	require.GreaterOrEqual(t, userLine, 0)
	require.GreaterOrEqual(t, assistantLine, 0)
	assert.Less(t, userLine, assistantLine)
}

func TestBuildPromptNoMeasurements(t *testing.T) {
	reader := &fakeReader{user: namedUser("Alice")}

	prompt, err := NewContextAssembler(reader).BuildPrompt(context.Background(), 1, "Am I healthy?")
	require.NoError(t, err)

	assert.Contains(t, prompt, "Recent measurements: [no data]")
	assert.NotContains(t, prompt, "Conversation so far:")
}

func TestBuildPromptMissingUserUsesPlaceholder(t *testing.T) {
	reader := &fakeReader{
		records: []store.HealthRecord{{Type: "BPM", Value: 72, Unit: "bpm"}},
	}

	prompt, err := NewContextAssembler(reader).BuildPrompt(context.Background(), 99, "Hello?")
	require.NoError(t, err)

	// An absent identity record must not fail the turn.
	assert.Contains(t, prompt, "User: there")
	assert.Contains(t, prompt, "BPM: 72 bpm")
}

func TestBuildPromptEmptyNameUsesPlaceholder(t *testing.T) {
	user := namedUser("")
	reader := &fakeReader{user: user}

	prompt, err := NewContextAssembler(reader).BuildPrompt(context.Background(), 1, "Hello?")
	require.NoError(t, err)
	assert.Contains(t, prompt, "User: there (user@test.com)")
}

func TestBuildPromptStoreErrorFailsTurn(t *testing.T) {
	reader := &fakeReader{
		user:       namedUser("Alice"),
		historyErr: errors.New("disk on fire"),
	}

	_, err := NewContextAssembler(reader).BuildPrompt(context.Background(), 1, "Hello?")
	assert.Error(t, err)
}

func TestFormatRecordsUnitless(t *testing.T) {
	got := formatRecords([]store.HealthRecord{{Type: "glucose", Value: 5.4}})
	assert.Equal(t, "glucose: 5.4", got)
}
