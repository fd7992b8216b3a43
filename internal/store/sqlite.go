package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT UNIQUE NOT NULL,
        name TEXT,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS health_records (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        type TEXT NOT NULL,
        value REAL NOT NULL,
        unit TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    CREATE INDEX IF NOT EXISTS idx_health_records_user_created
        ON health_records (user_id, created_at DESC);

    CREATE TABLE IF NOT EXISTS chat_messages (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    CREATE INDEX IF NOT EXISTS idx_chat_messages_user_created
        ON chat_messages (user_id, created_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) CreateUser(email, passwordHash string, name *string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)", email, name, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(id)
}

func (s *SQLiteStore) GetUserByID(id int64) (*User, error) {
	return s.scanUser(s.db.QueryRow("SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?", id))
}

func (s *SQLiteStore) GetUserByEmail(email string) (*User, error) {
	return s.scanUser(s.db.QueryRow("SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?", email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	var user User
	var name sql.NullString
	err := row.Scan(&user.ID, &user.Email, &name, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if name.Valid {
		user.Name = &name.String
	}
	return &user, nil
}

// HealthRecord methods

func (s *SQLiteStore) CreateHealthRecord(userID int64, recordType string, value float64, unit string) (*HealthRecord, error) {
	now := time.Now()
	res, err := s.db.Exec("INSERT INTO health_records (user_id, type, value, unit, created_at) VALUES (?, ?, ?, ?, ?)",
		userID, recordType, value, unit, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert health record: %w", err)
	}
	id, _ := res.LastInsertId()
	return &HealthRecord{ID: id, UserID: userID, Type: recordType, Value: value, Unit: unit, CreatedAt: now}, nil
}

// GetHealthRecordsByUserID returns all of a user's measurements, newest first.
func (s *SQLiteStore) GetHealthRecordsByUserID(userID int64) ([]HealthRecord, error) {
	return s.queryHealthRecords("SELECT id, user_id, type, value, unit, created_at FROM health_records WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
}

// GetRecentHealthRecords returns the n most recent measurements, newest first.
func (s *SQLiteStore) GetRecentHealthRecords(userID int64, n int) ([]HealthRecord, error) {
	return s.queryHealthRecords("SELECT id, user_id, type, value, unit, created_at FROM health_records WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?", userID, n)
}

func (s *SQLiteStore) queryHealthRecords(query string, args ...any) ([]HealthRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query health records: %w", err)
	}
	defer rows.Close()

	var records []HealthRecord
	for rows.Next() {
		var rec HealthRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Value, &rec.Unit, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan health record row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) DeleteHealthRecord(recordID, userID int64) error {
	res, err := s.db.Exec("DELETE FROM health_records WHERE id = ? AND user_id = ?", recordID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete health record: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ChatMessage methods

// GetMessagesByUserID returns the user's full history in chronological order,
// for display.
func (s *SQLiteStore) GetMessagesByUserID(userID int64) ([]ChatMessage, error) {
	return s.queryMessages("SELECT id, user_id, role, content, created_at FROM chat_messages WHERE user_id = ? ORDER BY created_at ASC, rowid ASC", userID)
}

// GetLastNMessagesByUserID returns up to n turns, newest first. Callers that
// feed these into a prompt must reverse them back to chronological order.
func (s *SQLiteStore) GetLastNMessagesByUserID(userID int64, n int) ([]ChatMessage, error) {
	return s.queryMessages("SELECT id, user_id, role, content, created_at FROM chat_messages WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?", userID, n)
}

func (s *SQLiteStore) queryMessages(query string, args ...any) ([]ChatMessage, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateMessagePair inserts the user's question and the assistant's answer as
// one transaction. Either both rows are committed or neither is; readers never
// observe a user turn without its assistant reply.
func (s *SQLiteStore) CreateMessagePair(ctx context.Context, userID int64, question, answer string) (*ChatMessage, *ChatMessage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	userMsg := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      RoleUser,
		Content:   question,
		CreatedAt: time.Now(),
	}
	assistantMsg := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      RoleAssistant,
		Content:   answer,
		CreatedAt: time.Now(), // never earlier than the user turn
	}

	const insert = "INSERT INTO chat_messages (id, user_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)"
	for _, msg := range []ChatMessage{userMsg, assistantMsg} {
		if _, err := tx.ExecContext(ctx, insert, msg.ID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to insert %s message: %w", msg.Role, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit message pair: %w", err)
	}
	return &userMsg, &assistantMsg, nil
}

// DeleteMessagesByUserID removes all of a user's turns and reports how many
// rows were deleted. There is no confirmation step here; callers own that.
func (s *SQLiteStore) DeleteMessagesByUserID(userID int64) (int64, error) {
	res, err := s.db.Exec("DELETE FROM chat_messages WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
