package api

import (
	"net/http"

	"storefront-catalog-service/internal/auth"
)

type signupRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type authResponse struct {
	Message string         `json:"message"`
	User    userResponse   `json:"user"`
	Tokens  auth.TokenPair `json:"tokens"`
}

func (h *HTTPHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, codeBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if fields := h.validateRequest(req); fields != nil {
		respondWithFieldErrors(w, fields)
		return
	}

	user, tokens, err := h.auth.Signup(r.Context(), auth.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		respondWithServiceError(w, "Signup", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, authResponse{
		Message: "User created successfully",
		User:    newUserResponse(user),
		Tokens:  tokens,
	})
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, codeBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if fields := h.validateRequest(req); fields != nil {
		respondWithFieldErrors(w, fields)
		return
	}

	user, tokens, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, "Login", err)
		return
	}
	respondWithJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    newUserResponse(user),
		Tokens:  tokens,
	})
}

func (h *HTTPHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, codeBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if fields := h.validateRequest(req); fields != nil {
		respondWithFieldErrors(w, fields)
		return
	}

	tokens, err := h.auth.Refresh(r.Context(), req.Refresh)
	if err != nil {
		respondWithServiceError(w, "RefreshToken", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tokens)
}

func (h *HTTPHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication credentials were not provided")
		return
	}
	user, err := h.auth.Profile(r.Context(), claims.UserID)
	if err != nil {
		respondWithServiceError(w, "Profile", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newUserResponse(user))
}
