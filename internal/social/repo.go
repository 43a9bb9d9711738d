package social

import (
	"context"
	"fmt"

	"github.com/mbasaric/fitplan/internal/telemetry/tracing"
	"github.com/mbasaric/fitplan/pkg"

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

// AddFriendRequest stores a pending request. A request in the opposite
// direction counts as already-sent too.
func (r *Repo) AddFriendRequest(ctx context.Context, fromID, toID string) (_ *FriendRequest, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.social.addfriendrequest")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("from_id", fromID))
	span.SetAttributes(attribute.String("to_id", toID))

	var existing int
	err = r.db.QueryRow(
		ctx,
		`
			SELECT COUNT(*) FROM friend_request
				WHERE ((from_id = $1 AND to_id = $2) OR (from_id = $2 AND to_id = $1))
				AND status IN ('pending', 'accepted');`,
		fromID, toID,
	).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("check existing request: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyRequested
	}

	request := FriendRequest{
		FromID: fromID,
		ToID:   toID,
		Status: RequestPending,
	}
	err = r.db.QueryRow(
		ctx,
		`
			INSERT INTO friend_request (from_id, to_id, status, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id, created_at;`,
		fromID, toID, RequestPending,
	).Scan(&request.ID, &request.CreatedAt)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrAlreadyRequested
		}
		return nil, fmt.Errorf("insert friend request: %w", err)
	}
	return &request, nil
}

// RespondFriendRequest moves a pending request to accepted or declined.
func (r *Repo) RespondFriendRequest(ctx context.Context, id int, accept bool) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.social.respondfriendrequest")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	status := RequestDeclined
	if accept {
		status = RequestAccepted
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE friend_request SET status = $1 WHERE id = $2 AND status = 'pending';`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update friend request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *Repo) ListPendingRequests(ctx context.Context, ownerID string) (_ []FriendRequest, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.social.listpendingrequests")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, from_id, to_id, status, created_at
			FROM friend_request
				WHERE to_id = $1 AND status = 'pending'
			ORDER BY created_at DESC;`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return rows2requests(rows)
}

// ListFriends returns ids of everyone connected to the owner through an
// accepted request, either direction.
func (r *Repo) ListFriends(ctx context.Context, ownerID string) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.social.listfriends")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				CASE WHEN from_id = $1 THEN to_id ELSE from_id END
			FROM friend_request
				WHERE (from_id = $1 OR to_id = $1) AND status = 'accepted';`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	var friends []string
	for rows.Next() {
		var friendID string
		if err := rows.Scan(&friendID); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		friends = append(friends, friendID)
	}
	return friends, nil
}

func (r *Repo) AddActivity(ctx context.Context, activity Activity) (_ *Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.social.addactivity")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("owner_id", activity.OwnerID))
	span.SetAttributes(attribute.String("kind", string(activity.Kind)))

	err = r.db.QueryRow(
		ctx,
		`
			INSERT INTO social_activity (owner_id, kind, message, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id, created_at;`,
		activity.OwnerID, activity.Kind, activity.Message,
	).Scan(&activity.ID, &activity.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return &activity, nil
}

// Feed lists the newest activities of the given owners (the reader plus
// their friends), with like and comment counts folded in.
func (r *Repo) Feed(ctx context.Context, ownerIDs []string, limit int) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.social.feed")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("owners", len(ownerIDs)))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				a.id, a.owner_id, a.kind, a.message, a.created_at,
				COUNT(DISTINCT l.owner_id) AS likes,
				COUNT(DISTINCT c.id) AS comments
			FROM social_activity a
				LEFT JOIN activity_like l ON l.activity_id = a.id
				LEFT JOIN activity_comment c ON c.activity_id = a.id
			WHERE a.owner_id = ANY($1)
			GROUP BY a.id
			ORDER BY a.created_at DESC
			LIMIT $2;`,
		ownerIDs, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return rows2activities(rows)
}

// LikeActivity is idempotent, a second like from the same owner is a no-op.
func (r *Repo) LikeActivity(ctx context.Context, activityID int, ownerID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.social.likeactivity")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(
		ctx,
		`
			INSERT INTO activity_like (activity_id, owner_id)
			VALUES ($1, $2)
			ON CONFLICT (activity_id, owner_id) DO NOTHING;`,
		activityID, ownerID,
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return ErrActivityNotFound
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

func (r *Repo) UnlikeActivity(ctx context.Context, activityID int, ownerID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.social.unlikeactivity")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(
		ctx,
		`DELETE FROM activity_like WHERE activity_id = $1 AND owner_id = $2;`,
		activityID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

func (r *Repo) AddComment(ctx context.Context, comment Comment) (_ *Comment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.social.addcomment")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = r.db.QueryRow(
		ctx,
		`
			INSERT INTO activity_comment (activity_id, owner_id, text, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id, created_at;`,
		comment.ActivityID, comment.OwnerID, comment.Text,
	).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

func (r *Repo) ListComments(ctx context.Context, activityID int) (_ []Comment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.social.listcomments")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, activity_id, owner_id, text, created_at
			FROM activity_comment
				WHERE activity_id = $1
			ORDER BY created_at ASC;`,
		activityID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ActivityID, &c.OwnerID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func rows2requests(rows pgx.Rows) ([]FriendRequest, error) {
	var requests []FriendRequest
	for rows.Next() {
		var fr FriendRequest
		if err := rows.Scan(&fr.ID, &fr.FromID, &fr.ToID, &fr.Status, &fr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		requests = append(requests, fr)
	}
	return requests, nil
}

func rows2activities(rows pgx.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(
			&a.ID, &a.OwnerID, &a.Kind, &a.Message, &a.CreatedAt,
			&a.Likes, &a.Comments,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, nil
}
