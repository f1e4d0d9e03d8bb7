package repository

import (
	"context"

	"cinebook/internal/database"
	"cinebook/internal/models"
)

type PaymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Record appends one audit entry per received provider event. The table
// is write-once; duplicate webhook deliveries produce duplicate entries
// on purpose.
func (r *PaymentRepository) Record(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (session_ref, txn_ref, amount, currency, status, method)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, recorded_at`

	return r.db.QueryRowContext(ctx, query,
		p.SessionRef,
		p.TxnRef,
		p.Amount,
		p.Currency,
		p.Status,
		p.Method,
	).Scan(&p.ID, &p.RecordedAt)
}

func (r *PaymentRepository) ListBySession(ctx context.Context, sessionRef string) ([]models.Payment, error) {
	query := `
		SELECT id, session_ref, txn_ref, amount, currency, status, method, recorded_at
		FROM payments
		WHERE session_ref = $1
		ORDER BY recorded_at, id`

	rows, err := r.db.QueryContext(ctx, query, sessionRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		err := rows.Scan(
			&p.ID,
			&p.SessionRef,
			&p.TxnRef,
			&p.Amount,
			&p.Currency,
			&p.Status,
			&p.Method,
			&p.RecordedAt,
		)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}
