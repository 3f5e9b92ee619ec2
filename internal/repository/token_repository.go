package repository

import (
	"database/sql"

	"github.com/sokoevents/eventpulse-backend/internal/model"
)

// TokenRepositoryInterface defines the token source used by the dispatcher
type TokenRepositoryInterface interface {
	ListByEmail(email string) ([]model.DeliveryToken, error)
}

// TokenRepository is the concrete implementation
type TokenRepository struct {
	DB *sql.DB
}

// ListByEmail fetches every device token registered for a recipient,
// oldest registration first. A recipient with no devices gets an empty
// slice, not an error.
func (r *TokenRepository) ListByEmail(email string) ([]model.DeliveryToken, error) {
	query := `
        SELECT owner_email, token
        FROM device_tokens
        WHERE LOWER(owner_email) = LOWER($1)
        ORDER BY created_at
    `
	rows, err := r.DB.Query(query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []model.DeliveryToken{}
	for rows.Next() {
		var t model.DeliveryToken
		if err := rows.Scan(&t.OwnerEmail, &t.Token); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

var _ TokenRepositoryInterface = (*TokenRepository)(nil)
