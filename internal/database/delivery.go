package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/storage"
)

// FindActiveZone matches city case-insensitively. With a postal code, only zones
// covering the whole city or that exact code qualify; exact codes win.
func (s *Store) FindActiveZone(ctx context.Context, city, postalCode string) (*model.DeliveryZone, error) {
	var (
		z       model.DeliveryZone
		pincode sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, city, state, pincode, active
		FROM delivery_zones
		WHERE active
		  AND LOWER(city) = LOWER($1)
		  AND ($2::text = '' OR pincode IS NULL OR pincode = $2::text)
		ORDER BY pincode NULLS LAST
		LIMIT 1
	`, city, postalCode).Scan(&z.ID, &z.City, &z.State, &pincode, &z.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("find delivery zone: %w", err)
	}
	if pincode.Valid {
		z.PostalCode = &pincode.String
	}
	return &z, nil
}
