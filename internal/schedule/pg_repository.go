package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/patienthjem/bus-scheduling/internal/bustime"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry

	err := row.Scan(
		&e.ID,
		&e.DestinationID,
		&e.DayOfWeek,
		&e.DepartureTime,
		&e.DepartureLocation,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	return &e, nil
}

func (r *PgRepository) FindEntries(ctx context.Context, destinationID int64, dayOfWeek string) ([]bustime.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT departure_time, departure_location
		FROM schedules
		WHERE destination_id = $1 AND day_of_week = $2
	`, destinationID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []bustime.Entry
	for rows.Next() {
		var e bustime.Entry
		if err := rows.Scan(&e.Departure, &e.PickupLocation); err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) List(ctx context.Context, destinationID int64, dayOfWeek string) ([]Entry, error) {
	query := `
		SELECT id, destination_id, day_of_week, departure_time, departure_location, created_at
		FROM schedules
	`
	var args []any
	switch {
	case destinationID != 0 && dayOfWeek != "":
		query += ` WHERE destination_id = $1 AND day_of_week = $2`
		args = []any{destinationID, dayOfWeek}
	case destinationID != 0:
		query += ` WHERE destination_id = $1`
		args = []any{destinationID}
	case dayOfWeek != "":
		query += ` WHERE day_of_week = $1`
		args = []any{dayOfWeek}
	}
	query += ` ORDER BY day_of_week, departure_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) Create(ctx context.Context, e Entry) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO schedules (destination_id, day_of_week, departure_time, departure_location, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, destination_id, day_of_week, departure_time, departure_location, created_at
	`, e.DestinationID, e.DayOfWeek, e.DepartureTime, e.DepartureLocation)

	return scanEntry(row)
}

func (r *PgRepository) Upsert(ctx context.Context, e Entry) error {
	// Duplicate rows for the same destination/day/time are tolerated in
	// the table, so there is no unique index to ON CONFLICT against.
	tag, err := r.pool.Exec(ctx, `
		UPDATE schedules
		SET departure_location = $4
		WHERE destination_id = $1 AND day_of_week = $2 AND departure_time = $3
	`, e.DestinationID, e.DayOfWeek, e.DepartureTime, e.DepartureLocation)
	if err != nil {
		return fmt.Errorf("update schedule entry: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO schedules (destination_id, day_of_week, departure_time, departure_location, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, e.DestinationID, e.DayOfWeek, e.DepartureTime, e.DepartureLocation)
	if err != nil {
		return fmt.Errorf("insert schedule entry: %w", err)
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
