package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storefront/internal/model"
	"storefront/internal/mw"
	"storefront/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func RegisterHandler(authSvc AuthService, secret string, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			badRequest(w, "invalid json")
			return
		}

		if req.Email == "" || req.Password == "" {
			badRequest(w, "email and password required")
			return
		}

		user, err := authSvc.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmailTaken):
				writeMessage(w, http.StatusConflict, "email already exists", "Conflict")
			default:
				writeError(w, r, err)
			}
			return
		}

		issueToken(w, user, secret, ttl, http.StatusCreated)
	}
}

func issueToken(w http.ResponseWriter, user *model.User, secret string, ttl time.Duration, status int) {
	token, err := mw.NewToken(secret, user, ttl)
	if err != nil {
		slog.Error("token generation failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "token generation failed", string(service.KindStorage))
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	writeJSON(w, status, authResponse{Token: token, User: user})
}
