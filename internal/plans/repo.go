package plans

import (
	"context"
	"encoding/json"
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

type RangeParams struct {
	OwnerID         string
	From            time.Time
	To              time.Time
	IncludeArchived bool
}

// ListRange returns the owner's day plans within [From, To], ascending by date.
func (r *Repo) ListRange(ctx context.Context, params RangeParams) (_ []DayPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.listrange")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner_id", params.OwnerID))
	span.SetAttributes(attribute.String("from", params.From.String()))
	span.SetAttributes(attribute.String("to", params.To.String()))
	span.SetAttributes(attribute.Bool("include-archived", params.IncludeArchived))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, owner_id, date, kind, exercises, duration, notes, completed, missed, archived
			FROM day_plan
				WHERE owner_id = $1
				AND date >= $2 AND date <= $3
				AND ($4::boolean IS TRUE OR archived IS FALSE)
			ORDER BY date ASC;`,
		params.OwnerID, params.From, params.To, params.IncludeArchived,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	days, err := r.rows2days(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2days: %w", err)
	}
	return days, nil
}

// Upsert inserts the day plan or, when a row for (owner, date) already
// exists, replaces its content. The returned day carries the stored id,
// which replaces a locally generated placeholder id.
func (r *Repo) Upsert(ctx context.Context, day DayPlan) (_ *DayPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner_id", day.OwnerID))
	span.SetAttributes(attribute.String("date", day.Date.String()))

	exercisesJson, err := json.Marshal(day.Exercises)
	if err != nil {
		return nil, fmt.Errorf("marshal exercises: %w", err)
	}

	completed, missed := day.Status.Flags()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO day_plan
				(id, owner_id, date, kind, exercises, duration, notes, completed, missed, archived)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (owner_id, date) DO UPDATE SET
				kind = EXCLUDED.kind,
				exercises = EXCLUDED.exercises,
				duration = EXCLUDED.duration,
				notes = EXCLUDED.notes,
				completed = EXCLUDED.completed,
				missed = EXCLUDED.missed,
				archived = EXCLUDED.archived
			RETURNING id;`,
		day.ID, day.OwnerID, day.Date, day.Kind, exercisesJson,
		day.Duration, day.Notes, completed, missed, day.Archived,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id string
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.String("day.id", id))

	day.ID = id
	return &day, nil
}

// InsertBatch persists the given day plans in a single batch.
func (r *Repo) InsertBatch(ctx context.Context, days []DayPlan) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.insertbatch")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("count", len(days)))

	batch := &pgx.Batch{}
	for _, day := range days {
		exercisesJson, err := json.Marshal(day.Exercises)
		if err != nil {
			return fmt.Errorf("marshal exercises: %w", err)
		}
		completed, missed := day.Status.Flags()
		batch.Queue(
			`INSERT INTO day_plan
				(id, owner_id, date, kind, exercises, duration, notes, completed, missed, archived)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (owner_id, date) DO NOTHING;`,
			day.ID, day.OwnerID, day.Date, day.Kind, exercisesJson,
			day.Duration, day.Notes, completed, missed, day.Archived,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer func() {
		if closeErr := results.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for range days {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// SetArchived flips the archived flag without touching the row content.
func (r *Repo) SetArchived(ctx context.Context, id string, archived bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.setarchived")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))
	span.SetAttributes(attribute.Bool("archived", archived))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE day_plan SET archived = $1 WHERE id = $2;`,
		archived, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDayNotFound
	}
	return nil
}

// OldestActive returns the lowest-dated non-archived day plan for the owner.
func (r *Repo) OldestActive(ctx context.Context, ownerID string) (_ *DayPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.oldestactive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner_id", ownerID))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, owner_id, date, kind, exercises, duration, notes, completed, missed, archived
			FROM day_plan
				WHERE owner_id = $1 AND archived IS FALSE
			ORDER BY date ASC
			LIMIT 1;`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	days, err := r.rows2days(rows)
	if err != nil {
		return nil, err
	}
	if len(days) != 1 {
		return nil, ErrDayNotFound
	}
	return &days[0], nil
}

// ActiveCount counts the owner's non-archived day plans.
func (r *Repo) ActiveCount(ctx context.Context, ownerID string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.activecount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner_id", ownerID))

	rows, err := r.db.Query(ctx, `
		SELECT COUNT(*) FROM day_plan
			WHERE owner_id = $1 AND archived IS FALSE;
	`, ownerID)
	if err != nil {
		return -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return -1, err
	}

	if rows.Next() {
		var count int
		if err := rows.Scan(&count); err == nil {
			return count, nil
		}
	}

	return -1, errors.New("unexpected error, failed to get active day count")
}

// ListArchived returns the owner's archived day plans, newest first.
func (r *Repo) ListArchived(ctx context.Context, ownerID string) (_ []DayPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.listarchived")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner_id", ownerID))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, owner_id, date, kind, exercises, duration, notes, completed, missed, archived
			FROM day_plan
				WHERE owner_id = $1 AND archived IS TRUE
			ORDER BY date DESC;`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r.rows2days(rows)
}

// Delete removes a day plan row for good. Only reachable from the
// archive view.
func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM day_plan WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDayNotFound
	}
	return nil
}

func (r *Repo) rows2days(rows pgx.Rows) ([]DayPlan, error) {
	var days []DayPlan
	for rows.Next() {
		var id string
		var ownerID string
		var date time.Time
		var kind string
		var exercisesBytes []byte
		var duration int
		var notes string
		var completed bool
		var missed bool
		var archived bool
		if err := rows.Scan(
			&id, &ownerID, &date, &kind, &exercisesBytes,
			&duration, &notes, &completed, &missed, &archived,
		); err != nil {
			return nil, err
		}

		d := DayPlan{
			ID:       id,
			OwnerID:  ownerID,
			Date:     Midnight(date),
			Kind:     Kind(kind),
			Duration: duration,
			Notes:    notes,
			Status:   StatusFromFlags(completed, missed),
			Archived: archived,
		}

		if len(exercisesBytes) > 0 {
			if err := json.Unmarshal(exercisesBytes, &d.Exercises); err != nil {
				return nil, fmt.Errorf("unmarshal exercises for day %s: %w", id, err)
			}
		}

		days = append(days, d)
	}

	if days == nil {
		days = make([]DayPlan, 0)
	}

	return days, nil
}
