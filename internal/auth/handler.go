package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smartstudy/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is how long an admin token stays valid.
const TokenTTL = 72 * time.Hour

// Handler logs in the single moderation account configured at startup.
type Handler struct {
	username     string
	passwordHash []byte
	secret       []byte
}

func NewHandler(username, passwordHash string, secret []byte) *Handler {
	return &Handler{username: username, passwordHash: []byte(passwordHash), secret: secret}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Username and password are required"})
		return
	}

	if len(h.passwordHash) == 0 || len(h.secret) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "Admin login is not configured"})
		return
	}

	if req.Username != h.username {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid username or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid username or password"})
		return
	}

	token, err := GenerateToken(h.secret, h.username, time.Now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, models.AuthResponse{Token: token, ExpiresIn: int64(TokenTTL.Seconds())})
}

// GenerateToken signs an HS256 admin token for subject.
func GenerateToken(secret []byte, subject string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": "admin",
		"exp":  now.Add(TokenTTL).Unix(),
		"iat":  now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
