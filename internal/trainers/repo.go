package trainers

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

var (
	ErrClientNotFound = errors.New("client not found")
	ErrAlreadyClient  = errors.New("client already assigned")
)

// Client is one coached athlete in a trainer's roster.
type Client struct {
	TrainerID string    `json:"trainerId"`
	ClientID  string    `json:"clientId"`
	AddedAt   time.Time `json:"addedAt"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) ListClients(ctx context.Context, trainerID string) (_ []Client, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainers.listclients")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("trainer_id", trainerID))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				trainer_id, client_id, added_at
			FROM trainer_client
				WHERE trainer_id = $1
			ORDER BY added_at ASC;`,
		trainerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	clients, err := rows2clients(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2clients: %w", err)
	}
	return clients, nil
}

func (r *Repo) AddClient(ctx context.Context, trainerID, clientID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainers.addclient")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`
			INSERT INTO trainer_client (trainer_id, client_id, added_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (trainer_id, client_id) DO NOTHING;`,
		trainerID, clientID,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyClient
	}
	return nil
}

func (r *Repo) RemoveClient(ctx context.Context, trainerID, clientID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.trainers.removeclient")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM trainer_client WHERE trainer_id = $1 AND client_id = $2;`,
		trainerID, clientID,
	)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func rows2clients(rows pgx.Rows) ([]Client, error) {
	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.TrainerID, &c.ClientID, &c.AddedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, nil
}
