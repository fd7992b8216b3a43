package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Lovaxcoding/Health-Track-Project/internal/auth"
	"github.com/Lovaxcoding/Health-Track-Project/internal/core"
	"github.com/Lovaxcoding/Health-Track-Project/internal/store"
)

// Short user-facing message for any generation or persistence failure. The
// real error is logged server-side only.
const assistantUnavailableMsg = "The assistant is unavailable."

type APIHandler struct {
	store       *store.SQLiteStore
	chatService *core.ChatService
}

func NewAPIHandler(db *store.SQLiteStore, cs *core.ChatService) *APIHandler {
	return &APIHandler{store: db, chatService: cs}
}

// JWTAuthMiddleware verifies the bearer token and puts the user id it encodes
// on the request context. The id is trusted as-is; there is no user lookup.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *APIHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	existing, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		logrus.Errorf("Error checking email %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "Email already in use", http.StatusBadRequest)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		logrus.Errorf("Error hashing password for %s: %v", req.Email, err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.store.CreateUser(req.Email, hashedPassword, req.Name)
	if err != nil {
		logrus.Errorf("Error creating user %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		logrus.Errorf("Error getting user %s: %v", req.Email, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		logrus.Errorf("Error generating JWT for user %d: %v", user.ID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{"token": token, "user": user})
}

func (h *APIHandler) ListHealthRecordsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	records, err := h.store.GetHealthRecordsByUserID(userID)
	if err != nil {
		logrus.Errorf("Error listing health records for user %d: %v", userID, err)
		http.Error(w, "Failed to list health records", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []store.HealthRecord{}
	}
	json.NewEncoder(w).Encode(records)
}

type CreateHealthRecordRequest struct {
	Type  string   `json:"type"`
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
}

func (h *APIHandler) CreateHealthRecordHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req CreateHealthRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Type == "" || req.Value == nil {
		http.Error(w, "Type and value are required", http.StatusBadRequest)
		return
	}

	record, err := h.store.CreateHealthRecord(userID, req.Type, *req.Value, req.Unit)
	if err != nil {
		logrus.Errorf("Error creating health record for user %d: %v", userID, err)
		http.Error(w, "Failed to create health record", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

func (h *APIHandler) DeleteHealthRecordHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	recordID, err := strconv.ParseInt(chi.URLParam(r, "recordID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid record id", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteHealthRecord(recordID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Health record not found", http.StatusNotFound)
			return
		}
		logrus.Errorf("Error deleting health record %d for user %d: %v", recordID, userID, err)
		http.Error(w, "Failed to delete health record", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	messages, err := h.chatService.History(userID)
	if err != nil {
		logrus.Errorf("Error getting history for user %d: %v", userID, err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []store.ChatMessage{}
	}
	json.NewEncoder(w).Encode(messages)
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "Message content cannot be empty", http.StatusBadRequest)
		return
	}

	messages, err := h.chatService.PostMessage(r.Context(), userID, req.Content)
	if err != nil {
		logrus.Errorf("Error posting message for user %d: %v", userID, err)
		if errors.Is(err, core.ErrRateLimited) {
			http.Error(w, assistantUnavailableMsg, http.StatusTooManyRequests)
		} else {
			http.Error(w, assistantUnavailableMsg, http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(messages)
}

func (h *APIHandler) ClearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	deleted, err := h.chatService.ClearHistory(userID)
	if err != nil {
		logrus.Errorf("Error clearing history for user %d: %v", userID, err)
		http.Error(w, "Failed to clear history", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"message": "Conversation history cleared",
		"deleted": deleted,
	})
}
