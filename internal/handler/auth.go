package handler

import (
	"errors"
	"net/http"
	"time"

	"storefront/internal/mw"
	"storefront/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func LoginHandler(authSvc AuthService, secret string, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			badRequest(w, "invalid json")
			return
		}

		user, err := authSvc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidCredentials):
				writeMessage(w, http.StatusUnauthorized, "invalid email or password", "Unauthorized")
			default:
				writeError(w, r, err)
			}
			return
		}

		issueToken(w, user, secret, ttl, http.StatusOK)
	}
}

func MeHandler(authSvc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := mw.PrincipalFromContext(r.Context())

		user, err := authSvc.CurrentUser(r.Context(), p.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}
