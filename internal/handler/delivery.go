package handler

import (
	"context"
	"net/http"
	"strings"
)

type DeliveryChecker interface {
	IsDeliverable(ctx context.Context, city, postalCode string) bool
}

func CheckDeliveryHandler(checker DeliveryChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		city := strings.TrimSpace(q.Get("city"))
		if city == "" {
			badRequest(w, "city is required")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{
			"deliverable": checker.IsDeliverable(r.Context(), city, q.Get("postalCode")),
		})
	}
}
