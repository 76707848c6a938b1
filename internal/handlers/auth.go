package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/xelth-com/stockmaster/internal/middleware"
	"github.com/xelth-com/stockmaster/internal/models"
	"github.com/xelth-com/stockmaster/internal/store"
	"github.com/xelth-com/stockmaster/internal/utils"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func userKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userPath(key string) string {
	return models.CollectionUsers + "/" + key
}

// findUser loads an account by email
func (r *Router) findUser(req *http.Request, email string) (*models.UserAuth, error) {
	raw, err := r.store.Get(req.Context(), models.CollectionUsers, userKey(email))
	if err != nil {
		return nil, err
	}
	var user models.UserAuth
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Router) issueTokens(w http.ResponseWriter, status int, user *models.UserAuth) {
	accessToken, refreshToken, err := utils.GenerateTokens(user, r.auth.Secret())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}
	respondJSON(w, status, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user": user.Public(),
	})
}

// register handles user registration
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var regReq RegisterRequest
	if !decode(w, req, &regReq) {
		return
	}

	key := userKey(regReq.Email)
	if !strings.Contains(key, "@") {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "A valid email is required", "field": "email"})
		return
	}
	if len(regReq.Password) < MinPasswordLength {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Password is too short", "field": "password"})
		return
	}

	_, err := r.findUser(req, key)
	if err == nil {
		respondError(w, http.StatusConflict, "Email is already registered")
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		r.respondFailure(w, err)
		return
	}

	hashedPassword, err := utils.HashPassword(regReq.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.UserAuth{
		ID:        key,
		Email:     key,
		Password:  hashedPassword,
		Name:      strings.TrimSpace(regReq.Name),
		Role:      "user",
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.ApplyPatch(req.Context(), store.Patch{userPath(key): user}); err != nil {
		r.log.Errorw("register failed", "email", key, "error", err)
		respondError(w, http.StatusBadGateway, "Failed to create user")
		return
	}

	r.issueTokens(w, http.StatusCreated, &user)
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if !decode(w, req, &loginReq) {
		return
	}

	user, err := r.findUser(req, loginReq.Email)
	if err != nil || !utils.CheckPasswordHash(loginReq.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	now := r.now().UTC()
	user.LastLogin = &now
	if err := r.store.ApplyPatch(req.Context(), store.Patch{userPath(user.ID) + "/lastLogin": now}); err != nil {
		r.log.Warnw("could not record last login", "email", user.ID, "error", err)
	}

	r.issueTokens(w, http.StatusOK, user)
}

// logout revokes the presented access token
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	if token, ok := middleware.BearerToken(req); ok {
		r.auth.Revoke(token)
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// me returns the signed-in account
func (r *Router) me(w http.ResponseWriter, req *http.Request) {
	user, err := r.findUser(req, actor(req).Email)
	if err != nil {
		r.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user.Public())
}
