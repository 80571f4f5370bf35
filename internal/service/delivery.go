package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"storefront/internal/storage"
)

type DeliveryService struct {
	store storage.DeliveryStore
}

func NewDeliveryService(store storage.DeliveryStore) *DeliveryService {
	return &DeliveryService{store: store}
}

// IsDeliverable fails closed: lookup errors count as not deliverable.
func (s *DeliveryService) IsDeliverable(ctx context.Context, city, postalCode string) bool {
	city = strings.TrimSpace(city)
	postalCode = strings.TrimSpace(postalCode)
	if city == "" {
		return false
	}

	_, err := s.store.FindActiveZone(ctx, city, postalCode)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Error("delivery lookup failed", "city", city, "postal_code", postalCode, "error", err)
		}
		return false
	}
	return true
}
