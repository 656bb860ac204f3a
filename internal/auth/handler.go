package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	Name      string `json:"name"`
	ExpiresIn int64  `json:"expires_in"`
}

// ErrorResponse is returned with every 4xx/5xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginHandler serves the login endpoint.
type LoginHandler struct {
	service *Service
	log     logrus.FieldLogger
}

// NewLoginHandler creates the HTTP handler for service.
func NewLoginHandler(service *Service, log logrus.FieldLogger) *LoginHandler {
	return &LoginHandler{service: service, log: log}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, name, err := h.service.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		h.log.WithField("username", req.Username).Info("Rejected login")
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	case err != nil:
		h.log.WithError(err).Error("Login failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	h.log.WithField("nick", name).Info("Issued session token")
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		Name:      name,
		ExpiresIn: h.service.tokens.TTL(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
