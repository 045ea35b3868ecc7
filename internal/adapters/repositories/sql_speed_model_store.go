package repositories

import (
	"context"
	"database/sql"
	"delivery-tracking-service/internal/ports"
	"errors"
	"fmt"
)

// The speed model is a single row keyed by this id.
const speedModelRowID = 1

// SQL-backed implementation of the SpeedModelStore port.
type SQLSpeedModelStore struct{ DB *sql.DB }

func NewSQLSpeedModelStore(db *sql.DB) *SQLSpeedModelStore {
	return &SQLSpeedModelStore{DB: db}
}

func (s *SQLSpeedModelStore) LoadSpeedModel(ctx context.Context) (ports.SpeedModel, bool, error) {
	if s.DB == nil {
		return ports.SpeedModel{}, false, errors.New("speed model store: DB is nil")
	}

	var m ports.SpeedModel
	err := s.DB.QueryRowContext(ctx, `
	SELECT average_speed_kmh, samples
	FROM speed_model
	WHERE id = $1;
	`, speedModelRowID).Scan(&m.AverageSpeedKmh, &m.Samples)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.SpeedModel{}, false, nil
	}
	if err != nil {
		return ports.SpeedModel{}, false, fmt.Errorf("load speed model: %w", err)
	}

	return m, true, nil
}

func (s *SQLSpeedModelStore) SaveSpeedModel(ctx context.Context, m ports.SpeedModel) error {
	if s.DB == nil {
		return errors.New("speed model store: DB is nil")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO speed_model (id, average_speed_kmh, samples)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE
	SET average_speed_kmh = EXCLUDED.average_speed_kmh,
		samples = EXCLUDED.samples;
	`, speedModelRowID, m.AverageSpeedKmh, m.Samples)
	if err != nil {
		return fmt.Errorf("save speed model: %w", err)
	}

	return nil
}
