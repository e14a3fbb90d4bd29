package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore is a CandidateStore backed by PostgreSQL. Counters
// live as denormalized columns on the posts table, incremented by the
// write path; this store only reads them.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a CandidateStore over an existing
// database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// postColumns is the column list shared by all post selects, in scan
// order.
const postColumns = `id, author_id, university_id, parent_id, flag, text,
	like_count, red_vote_count, green_vote_count, reply_count, repost_count, view_count,
	moderation_status, moderation_until, created_at`

// Create inserts a new post, assigning a UUID if none is set.
func (s *PostgresStore) Create(ctx context.Context, p *Post) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.ModerationStatus == "" {
		p.ModerationStatus = ModerationOK
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, university_id, parent_id, flag, text,
			like_count, red_vote_count, green_vote_count, reply_count, repost_count, view_count,
			moderation_status, moderation_until, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.AuthorID, nullString(p.UniversityID), p.ParentID, nullString(string(p.Flag)), p.Text,
		p.LikeCount, p.RedVoteCount, p.GreenVoteCount, p.ReplyCount, p.RepostCount, p.ViewCount,
		string(p.ModerationStatus), p.ModerationUntil, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by its UUID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)

	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// ListCandidates returns the posts matching the query, ordered by
// (created_at DESC, id DESC). All filtering is pushed down to the
// database.
func (s *PostgresStore) ListCandidates(ctx context.Context, q CandidateQuery) ([]*Post, error) {
	var (
		where []string
		args  []interface{}
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch q.Scope {
	case ScopeForYou, "":
		// No scope restriction.
	case ScopeFollowing:
		if len(q.FollowedUniversityIDs) == 0 {
			return []*Post{}, nil
		}
		where = append(where, "university_id = ANY("+arg(pq.Array(q.FollowedUniversityIDs))+")")
	case ScopeMyUni:
		if q.HomeUniversityID == "" {
			return []*Post{}, nil
		}
		where = append(where, "university_id = "+arg(q.HomeUniversityID))
	default:
		return nil, ErrInvalidScope
	}

	if q.TopLevelOnly {
		where = append(where, "parent_id IS NULL")
	}
	if !q.Since.IsZero() {
		where = append(where, "created_at >= "+arg(q.Since))
	}
	if !q.Until.IsZero() {
		where = append(where, "created_at <= "+arg(q.Until))
	}
	if q.ExcludeSuppressed {
		now := q.Now
		if now.IsZero() {
			now = time.Now()
		}
		where = append(where, fmt.Sprintf(
			"NOT (moderation_status IN ('soft', 'esc') AND (moderation_until IS NULL OR moderation_until > %s))",
			arg(now)))
	}

	query := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return candidates, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPost scans one posts row. Nullable counter columns default to
// zero so that score arithmetic never sees a null.
func scanPost(sc scanner) (*Post, error) {
	var (
		p            Post
		universityID sql.NullString
		flag         sql.NullString
		likes        sql.NullInt64
		redVotes     sql.NullInt64
		greenVotes   sql.NullInt64
		replies      sql.NullInt64
		reposts      sql.NullInt64
		views        sql.NullInt64
		modStatus    sql.NullString
	)

	err := sc.Scan(
		&p.ID, &p.AuthorID, &universityID, &p.ParentID, &flag, &p.Text,
		&likes, &redVotes, &greenVotes, &replies, &reposts, &views,
		&modStatus, &p.ModerationUntil, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.UniversityID = universityID.String
	p.Flag = Flag(flag.String)
	p.LikeCount = int(likes.Int64)
	p.RedVoteCount = int(redVotes.Int64)
	p.GreenVoteCount = int(greenVotes.Int64)
	p.ReplyCount = int(replies.Int64)
	p.RepostCount = int(reposts.Int64)
	p.ViewCount = int(views.Int64)
	p.ModerationStatus = ModerationStatus(modStatus.String)
	if p.ModerationStatus == "" {
		p.ModerationStatus = ModerationOK
	}
	return &p, nil
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
