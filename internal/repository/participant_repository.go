package repository

import (
	"database/sql"

	"github.com/sokoevents/eventpulse-backend/internal/model"
)

// ParticipantRepositoryInterface defines the recipient source used by the dispatcher
type ParticipantRepositoryInterface interface {
	ListByChannel(channelID string) ([]model.RecipientIdentity, error)
	GetGuest(guestID string) (*model.RecipientIdentity, error)
}

// ParticipantRepository is the concrete implementation
type ParticipantRepository struct {
	DB *sql.DB
}

// ListByChannel fetches the active participants of a chat channel
func (r *ParticipantRepository) ListByChannel(channelID string) ([]model.RecipientIdentity, error) {
	query := `
        SELECT kind, email, display_name
        FROM channel_participants
        WHERE channel_id = $1 AND active = TRUE
        ORDER BY email
    `
	rows, err := r.DB.Query(query, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []model.RecipientIdentity{}
	for rows.Next() {
		var p model.RecipientIdentity
		if err := rows.Scan(&p.Kind, &p.Email, &p.DisplayName); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// GetGuest fetches a single guest target by ID
func (r *ParticipantRepository) GetGuest(guestID string) (*model.RecipientIdentity, error) {
	query := `
        SELECT email, display_name
        FROM guests
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, guestID)

	g := model.RecipientIdentity{Kind: model.IdentityGuest}
	if err := row.Scan(&g.Email, &g.DisplayName); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &g, nil
}

var _ ParticipantRepositoryInterface = (*ParticipantRepository)(nil)
