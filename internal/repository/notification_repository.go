package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/sokoevents/eventpulse-backend/internal/errors"
	"github.com/sokoevents/eventpulse-backend/internal/model"
)

type NotificationRepositoryInterface interface {
	Create(n *model.NotificationRecord) error
	GetByID(id string) (*model.NotificationRecord, error)
	List(offset, limit int, status string) ([]*model.NotificationRecord, int, error)

	// Status transitions
	MarkDispatching(id string) error
	Finalize(id string, status model.Status, sentAt *time.Time, errorSummary string, agg model.AggregateResult) error
}

type NotificationRepository struct {
	DB *sql.DB
}

const notificationColumns = `id, scope_kind, scope_id, scope_label, sender_email, sender_name,
        body_text, badge, correlation_data, status, sent_at, error_summary,
        sent_count, error_count, recipient_count, created_at, updated_at`

// ====================== Notification CRUD ======================

func (r *NotificationRepository) Create(n *model.NotificationRecord) error {
	n.CreatedAt = time.Now()
	if n.Status == "" {
		n.Status = model.StatusPending
	}
	if n.Badge == 0 {
		n.Badge = 1
	}

	data, err := json.Marshal(n.CorrelationData)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO notifications
        (id, scope_kind, scope_id, scope_label, sender_email, sender_name, body_text, badge, correlation_data, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err = r.DB.Exec(query,
		n.ID, n.ScopeKind, n.ScopeID, n.ScopeLabel, n.SenderEmail, n.SenderName,
		n.BodyText, n.Badge, string(data), n.Status, n.CreatedAt,
	)
	return err
}

func (r *NotificationRepository) GetByID(id string) (*model.NotificationRecord, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id=$1`
	n, err := scanNotification(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotificationNotFound(id)
		}
		return nil, err
	}
	return n, nil
}

func (r *NotificationRepository) List(offset, limit int, status string) ([]*model.NotificationRecord, int, error) {
	notifications := []*model.NotificationRecord{}
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM notifications WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// ====================== Status transitions ======================

// MarkDispatching moves a record from pending to dispatching. The WHERE
// guard keeps the transition one-way: a record that already left pending
// is never pulled back into the pipeline.
func (r *NotificationRepository) MarkDispatching(id string) error {
	query := `UPDATE notifications SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	res, err := r.DB.Exec(query, model.StatusDispatching, id, model.StatusPending)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("notification %s is not pending", id)
	}
	return nil
}

// Finalize writes the terminal status, counters and error detail exactly
// once. Only a dispatching record can be finalized, so a terminal state is
// never overwritten.
func (r *NotificationRepository) Finalize(id string, status model.Status, sentAt *time.Time, errorSummary string, agg model.AggregateResult) error {
	query := `
        UPDATE notifications
        SET status=$1, sent_at=$2, error_summary=$3, sent_count=$4, error_count=$5, recipient_count=$6, updated_at=NOW()
        WHERE id=$7 AND status=$8
    `
	res, err := r.DB.Exec(query, status, sentAt, errorSummary,
		agg.TotalSent, agg.TotalErrors, agg.RecipientsContacted, id, model.StatusDispatching)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("notification %s is not dispatching", id)
	}
	return nil
}

// scanNotification reads one row regardless of whether it came from Query or QueryRow
func scanNotification(row interface{ Scan(...interface{}) error }) (*model.NotificationRecord, error) {
	var n model.NotificationRecord
	var data sql.NullString
	var errorSummary sql.NullString
	err := row.Scan(
		&n.ID, &n.ScopeKind, &n.ScopeID, &n.ScopeLabel, &n.SenderEmail, &n.SenderName,
		&n.BodyText, &n.Badge, &data, &n.Status, &n.SentAt, &errorSummary,
		&n.SentCount, &n.ErrorCount, &n.RecipientCount, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.ErrorSummary = errorSummary.String
	if data.Valid && data.String != "" {
		if err := json.Unmarshal([]byte(data.String), &n.CorrelationData); err != nil {
			return nil, err
		}
	}
	return &n, nil
}

var _ NotificationRepositoryInterface = (*NotificationRepository)(nil)
