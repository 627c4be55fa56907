package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/nadfk/pweb-reactjs-p01-2025/internal/auth"
)

type AuthHandler struct {
	Service *auth.Service
}

func (h *AuthHandler) Register(r *chi.Mux) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Service.Tokens))
		r.Get("/auth/me", h.me)
	})
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	var username *string
	if req.Username != "" {
		username = &req.Username
	}
	u, err := h.Service.Register(r.Context(), username, req.Email, req.Password)
	if errors.Is(err, auth.ErrDuplicateUser) {
		writeError(w, http.StatusConflict, "Username or email already exists")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("register failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeSuccess(w, http.StatusCreated, "User registered successfully", map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"created_at": u.CreatedAt.Format(time.RFC3339),
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	token, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeSuccess(w, http.StatusOK, "Login successfully", map[string]string{
		"access_token": token,
	})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Me(r.Context(), UserID(r.Context()))
	if errors.Is(err, auth.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("get me failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeSuccess(w, http.StatusOK, "Get me successfully", map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
	})
}
