package handlers

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/auth"
	"github.com/victor-nwoseh/finance-tracker/internal/http/respond"
	"github.com/victor-nwoseh/finance-tracker/internal/models/dto"
	"github.com/victor-nwoseh/finance-tracker/internal/service"
)

const minPasswordLength = 8

// AuthHandler owns register/login endpoints.
type AuthHandler struct {
	users *service.UserService
	log   logrus.FieldLogger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(users *service.UserService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.Handle("GET /api/auth/me", protect(http.HandlerFunc(h.handleMe)))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	errs := fieldErrors{}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil || !strings.Contains(req.Email, "@") {
		errs.add("email", "must be a valid email address")
	}
	switch {
	case utf8.RuneCountInString(req.Password) < minPasswordLength || !utf8.ValidString(req.Password):
		errs.add("password", "must be at least 8 characters")
	case len(req.Password) > auth.MaxPasswordBytes:
		errs.add("password", fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes))
	}
	errs.text("name", req.Name, true, maxNameLength)
	if !errs.ok(w) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, h.log, err, "failed to register user")
		return
	}
	respond.JSON(w, http.StatusCreated, "user registered", user)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	token, user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.log, err, "failed to log in")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err, "failed to fetch user")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}
