package repositories

import (
	"context"
	"database/sql"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/obs"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQL-backed implementation of the ScheduleRepository port (SQLite or Postgres).
type SQLScheduleRepository struct{ DB *sql.DB }

func NewSQLScheduleRepository(db *sql.DB) *SQLScheduleRepository {
	return &SQLScheduleRepository{DB: db}
}

// Return all deliveries ordered by their position in the schedule.
func (s *SQLScheduleRepository) ListDeliveries(ctx context.Context) (_ []domain.Delivery, err error) {
	defer obs.Time(ctx, "schedule.ListDeliveries")(&err)

	if s.DB == nil {
		return nil, errors.New("sql schedule repository: DB is nil")
	}

	query := `
	SELECT
		delivery_id,
		contact_email,
		lat,
		lon,
		scheduled_at,
		delivered_at,
		arrived,
		on_time
	FROM deliveries
	ORDER BY position, delivery_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: query deliveries table: %w", err)
	}
	defer rows.Close()

	deliveries := make([]domain.Delivery, 0, 64)
	for rows.Next() {
		var (
			d           domain.Delivery
			scheduledAt string
			deliveredAt sql.NullString
		)
		err := rows.Scan(
			&d.ID,
			&d.ContactEmail,
			&d.Location.Lat,
			&d.Location.Lon,
			&scheduledAt,
			&deliveredAt,
			&d.Arrived,
			&d.OnTime,
		)
		if err != nil {
			return nil, fmt.Errorf("list deliveries: scan row: %w", err)
		}

		if d.ScheduledAt, err = time.Parse(time.RFC3339Nano, scheduledAt); err != nil {
			return nil, fmt.Errorf("list deliveries: delivery_id=%s: scheduled_at: %w", d.ID, err)
		}
		if deliveredAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, deliveredAt.String)
			if err != nil {
				return nil, fmt.Errorf("list deliveries: delivery_id=%s: delivered_at: %w", d.ID, err)
			}
			d.DeliveredAt = &t
		}

		deliveries = append(deliveries, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deliveries: row iteration: %w", err)
	}

	return deliveries, nil
}

// Persist arrival fields of one delivery. Returns domain.ErrUnknownDelivery if no row matches.
func (s *SQLScheduleRepository) SaveDeliveryStatus(ctx context.Context, d domain.Delivery) (err error) {
	defer obs.Time(ctx, "schedule.SaveDeliveryStatus")(&err)

	if s.DB == nil {
		return errors.New("sql schedule repository: DB is nil")
	}

	var deliveredAt sql.NullString
	if d.DeliveredAt != nil {
		deliveredAt = sql.NullString{String: d.DeliveredAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	res, err := s.DB.ExecContext(ctx, `
	UPDATE deliveries
	SET delivered_at = $1,
		arrived = $2,
		on_time = $3
	WHERE delivery_id = $4;
	`, deliveredAt, d.Arrived, d.OnTime, d.ID)
	if err != nil {
		return fmt.Errorf("save delivery status delivery_id=%s: %w", d.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save delivery status delivery_id=%s: rows affected: %w", d.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("save delivery status delivery_id=%s: %w", d.ID, domain.ErrUnknownDelivery)
	}

	return nil
}

// Replace the stored schedule with deliveries; positions follow slice order.
// Rows whose id is not in deliveries are removed. Arrival state of kept rows is preserved.
func (s *SQLScheduleRepository) UpsertDeliveries(ctx context.Context, deliveries []domain.Delivery) (err error) {
	defer obs.Time(ctx, "schedule.UpsertDeliveries")(&err)

	if s.DB == nil {
		return errors.New("sql schedule repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert deliveries: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteMissing(ctx, tx, deliveries); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO deliveries (
		delivery_id,
		position,
		contact_email,
		lat,
		lon,
		scheduled_at
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (delivery_id) DO UPDATE
	SET position = EXCLUDED.position,
		contact_email = EXCLUDED.contact_email,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		scheduled_at = EXCLUDED.scheduled_at;
	`)
	if err != nil {
		return fmt.Errorf("upsert deliveries: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range deliveries {
		_, err := stmt.ExecContext(ctx,
			d.ID,
			i+1,
			d.ContactEmail,
			d.Location.Lat,
			d.Location.Lon,
			d.ScheduledAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("upsert deliveries: insert delivery_id=%s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert deliveries: commit tx: %w", err)
	}

	return nil
}

// deleteMissing drops rows that are not part of the new schedule.
func deleteMissing(ctx context.Context, tx *sql.Tx, deliveries []domain.Delivery) error {
	query := "DELETE FROM deliveries"
	args := make([]any, 0, len(deliveries))

	if len(deliveries) > 0 {
		placeholders := make([]string, len(deliveries))
		for i, d := range deliveries {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, d.ID)
		}
		query += " WHERE delivery_id NOT IN (" + strings.Join(placeholders, ", ") + ")"
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert deliveries: delete stale rows: %w", err)
	}
	return nil
}
