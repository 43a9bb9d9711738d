package weights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbasaric/fitplan/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Save inserts the measurement or replaces the one already stored for
// that owner and day.
func (r *Repo) Save(ctx context.Context, entry Entry) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weights.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner_id", entry.OwnerID))
	span.SetAttributes(attribute.String("date", entry.Date.String()))

	var id int
	var createdAt time.Time
	err = r.db.QueryRow(
		ctx,
		`
			INSERT INTO weight_entry (owner_id, date, kilograms, notes, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (owner_id, date) DO UPDATE
				SET kilograms = EXCLUDED.kilograms, notes = EXCLUDED.notes
			RETURNING id, created_at;`,
		entry.OwnerID, entry.Date, entry.Kilograms, entry.Notes,
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert weight entry: %w", err)
	}

	entry.ID = id
	entry.CreatedAt = createdAt
	return &entry, nil
}

type ListParams struct {
	OwnerID string
	From    time.Time
	To      time.Time
}

// List returns the owner's measurements within [From, To], newest first.
// Zero From/To leave that side of the range open.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weights.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner_id", params.OwnerID))

	var from, to *time.Time
	if !params.From.IsZero() {
		from = &params.From
	}
	if !params.To.IsZero() {
		to = &params.To
	}

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, owner_id, date, kilograms, notes, created_at
			FROM weight_entry
				WHERE owner_id = $1
				AND ($2::timestamp IS NULL OR date >= $2)
				AND ($3::timestamp IS NULL OR date <= $3)
			ORDER BY date DESC;`,
		params.OwnerID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	entries, err := rows2entries(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2entries: %w", err)
	}
	return entries, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weights.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var entry Entry
	err = r.db.QueryRow(
		ctx,
		`
			SELECT
				id, owner_id, date, kilograms, notes, created_at
			FROM weight_entry WHERE id = $1;`,
		id,
	).Scan(&entry.ID, &entry.OwnerID, &entry.Date, &entry.Kilograms, &entry.Notes, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}
	return &entry, nil
}

func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weights.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM weight_entry WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete weight entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func rows2entries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID, &entry.OwnerID, &entry.Date,
			&entry.Kilograms, &entry.Notes, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
