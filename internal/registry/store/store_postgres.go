package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"podium/internal/registry/models"
	"podium/internal/registry/service"
	id "podium/pkg/domain"
	dErrors "podium/pkg/domain-errors"
	"podium/pkg/platform/sentinel"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists the registry in PostgreSQL.
// Write transactions lock the single registry_meta row first, which serializes
// writers and keeps athlete ids and event sequences dense.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, timeout: defaultTxTimeout}
}

// EnsureOwner records owner on first use and rejects a different owner
// afterwards.
func (s *PostgresStore) EnsureOwner(ctx context.Context, owner id.CallerID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registry_meta (id, owner)
		VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING
	`, owner.String())
	if err != nil {
		return fmt.Errorf("init registry meta: %w", err)
	}
	var stored string
	if err := s.db.QueryRowContext(ctx, `SELECT owner FROM registry_meta WHERE id = 1`).Scan(&stored); err != nil {
		return fmt.Errorf("read registry owner: %w", err)
	}
	if stored != owner.String() {
		return fmt.Errorf("registry owned by %q, configured owner %q: %w", stored, owner, sentinel.ErrInvalidState)
	}
	return nil
}

// RunInTx opens a transaction, locks the registry meta row and runs fn.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(store service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	view := &postgresTx{tx: tx}
	var lastCommitted sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT next_athlete_id, last_event_seq, last_committed_at
		FROM registry_meta
		WHERE id = 1
		FOR UPDATE
	`).Scan(&view.nextAthleteID, &view.lastEventSeq, &lastCommitted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("registry meta missing: %w", sentinel.ErrInvalidState)
		}
		return fmt.Errorf("lock registry meta: %w", err)
	}
	view.commitAt = lastCommitted.Time

	if err := fn(view); err != nil {
		return err
	}
	if err := view.flushMeta(ctx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dErrors.Wrap(ctxErr, dErrors.CodeTimeout, "transaction aborted: context cancelled")
		}
		return fmt.Errorf("commit registry tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAthlete(ctx context.Context, athleteID id.AthleteID) (*models.Athlete, error) {
	return findAthlete(ctx, s.db, athleteID, false)
}

func (s *PostgresStore) FindAthleteIDByCaller(ctx context.Context, caller id.CallerID) (id.AthleteID, error) {
	return findAthleteIDByCaller(ctx, s.db, caller)
}

func (s *PostgresStore) FindAchievement(ctx context.Context, key models.AchievementKey) (*models.Achievement, error) {
	return findAchievement(ctx, s.db, key)
}

func (s *PostgresStore) ListAchievements(ctx context.Context, athleteID id.AthleteID) ([]*models.Achievement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT athlete_id, id, title, description, is_verified, added_by, created_at
		FROM achievements
		WHERE athlete_id = $1
		ORDER BY id
	`, int64(athleteID))
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	achievements := make([]*models.Achievement, 0)
	for rows.Next() {
		achievement, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		achievements = append(achievements, achievement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievements: %w", err)
	}
	return achievements, nil
}

func (s *PostgresStore) CountAthletes(ctx context.Context) (uint64, error) {
	var next int64
	err := s.db.QueryRowContext(ctx, `SELECT next_athlete_id FROM registry_meta WHERE id = 1`).Scan(&next)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count athletes: %w", err)
	}
	return uint64(next - 1), nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]*models.Event, error) {
	return s.queryEvents(ctx, `
		SELECT seq, event_type, athlete_id, achievement_id, name, title, caller, verified, occurred_at, published_at
		FROM registry_events
		WHERE seq > $1
		ORDER BY seq
		LIMIT $2
	`, int64(afterSeq), limit) // #nosec G115
}

// FetchUnpublished returns up to limit pending events, oldest first.
func (s *PostgresStore) FetchUnpublished(ctx context.Context, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	const maxBatch = 1000
	if limit > maxBatch {
		limit = maxBatch
	}
	return s.queryEvents(ctx, `
		SELECT seq, event_type, athlete_id, achievement_id, name, title, caller, verified, occurred_at, published_at
		FROM registry_events
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
	`, limit)
}

func (s *PostgresStore) MarkPublished(ctx context.Context, seq uint64, publishedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE registry_events
		SET published_at = $2
		WHERE seq = $1 AND published_at IS NULL
	`, int64(seq), publishedAt) // #nosec G115
	if err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	if _, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registry_events WHERE published_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending events: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) queryEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// postgresTx implements service.Store on top of a locked transaction.
type postgresTx struct {
	tx            *sql.Tx
	nextAthleteID int64
	lastEventSeq  int64
	commitAt      time.Time
	metaDirty     bool
}

func (t *postgresTx) FindAthlete(ctx context.Context, athleteID id.AthleteID) (*models.Athlete, error) {
	return findAthlete(ctx, t.tx, athleteID, true)
}

func (t *postgresTx) FindAthleteIDByCaller(ctx context.Context, caller id.CallerID) (id.AthleteID, error) {
	return findAthleteIDByCaller(ctx, t.tx, caller)
}

func (t *postgresTx) NextAthleteID(_ context.Context) (id.AthleteID, error) {
	return id.AthleteID(t.nextAthleteID), nil // #nosec G115
}

func (t *postgresTx) CreateAthlete(ctx context.Context, athlete *models.Athlete) error {
	if int64(athlete.ID) != t.nextAthleteID { // #nosec G115
		return fmt.Errorf("create athlete %d: expected id %d: %w", athlete.ID, t.nextAthleteID, sentinel.ErrInvalidState)
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO athletes (id, name, sport, age, country, achievement_count, is_verified, is_active, owner, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		int64(athlete.ID), // #nosec G115
		athlete.Name,
		athlete.Sport,
		athlete.Age,
		athlete.Country,
		int64(athlete.AchievementCount), // #nosec G115
		athlete.Verified,
		athlete.Active,
		athlete.Owner.String(),
		athlete.RegisteredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("caller already mapped: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create athlete: %w", err)
	}
	t.nextAthleteID++
	t.metaDirty = true
	return nil
}

func (t *postgresTx) UpdateAthlete(ctx context.Context, athlete *models.Athlete) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE athletes
		SET achievement_count = $2, is_verified = $3, is_active = $4
		WHERE id = $1
	`,
		int64(athlete.ID),               // #nosec G115
		int64(athlete.AchievementCount), // #nosec G115
		athlete.Verified,
		athlete.Active,
	)
	if err != nil {
		return fmt.Errorf("update athlete: %w", err)
	}
	return requireRow(res, "update athlete")
}

func (t *postgresTx) FindAchievement(ctx context.Context, key models.AchievementKey) (*models.Achievement, error) {
	return findAchievement(ctx, t.tx, key)
}

func (t *postgresTx) CreateAchievement(ctx context.Context, achievement *models.Achievement) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO achievements (athlete_id, id, title, description, is_verified, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		int64(achievement.AthleteID), // #nosec G115
		int64(achievement.ID),        // #nosec G115
		achievement.Title,
		achievement.Description,
		achievement.Verified,
		achievement.AddedBy.String(),
		achievement.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("achievement exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create achievement: %w", err)
	}
	return nil
}

func (t *postgresTx) UpdateAchievement(ctx context.Context, achievement *models.Achievement) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE achievements
		SET is_verified = $3
		WHERE athlete_id = $1 AND id = $2
	`,
		int64(achievement.AthleteID), // #nosec G115
		int64(achievement.ID),        // #nosec G115
		achievement.Verified,
	)
	if err != nil {
		return fmt.Errorf("update achievement: %w", err)
	}
	return requireRow(res, "update achievement")
}

// AppendEvent assigns the next sequence number to event and stores it.
func (t *postgresTx) AppendEvent(ctx context.Context, event *models.Event) error {
	seq := t.lastEventSeq + 1
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO registry_events (seq, event_type, athlete_id, achievement_id, name, title, caller, verified, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		seq,
		string(event.Type),
		int64(event.AthleteID),     // #nosec G115
		int64(event.AchievementID), // #nosec G115
		event.Name,
		event.Title,
		event.Caller.String(),
		event.Verified,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	t.lastEventSeq = seq
	t.metaDirty = true
	event.Seq = uint64(seq) // #nosec G115
	return nil
}

// CommitTime clamps now to last_committed_at, which is read under the meta
// row lock and written back by flushMeta.
func (t *postgresTx) CommitTime(now time.Time) time.Time {
	if now.Before(t.commitAt) {
		return t.commitAt
	}
	if now.After(t.commitAt) {
		t.commitAt = now
		t.metaDirty = true
	}
	return now
}

func (t *postgresTx) flushMeta(ctx context.Context) error {
	if !t.metaDirty {
		return nil
	}
	lastCommitted := sql.NullTime{Time: t.commitAt, Valid: !t.commitAt.IsZero()}
	_, err := t.tx.ExecContext(ctx, `
		UPDATE registry_meta
		SET next_athlete_id = $1, last_event_seq = $2, last_committed_at = $3
		WHERE id = 1
	`, t.nextAthleteID, t.lastEventSeq, lastCommitted)
	if err != nil {
		return fmt.Errorf("update registry meta: %w", err)
	}
	return nil
}

func findAthlete(ctx context.Context, q querier, athleteID id.AthleteID, forUpdate bool) (*models.Athlete, error) {
	query := `
		SELECT id, name, sport, age, country, achievement_count, is_verified, is_active, owner, registered_at
		FROM athletes
		WHERE id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	athlete, err := scanAthlete(q.QueryRowContext(ctx, query, int64(athleteID))) // #nosec G115
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find athlete: %w", err)
	}
	return athlete, nil
}

func findAthleteIDByCaller(ctx context.Context, q querier, caller id.CallerID) (id.AthleteID, error) {
	var athleteID int64
	err := q.QueryRowContext(ctx, `SELECT id FROM athletes WHERE owner = $1`, caller.String()).Scan(&athleteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return id.NoAthlete, sentinel.ErrNotFound
		}
		return id.NoAthlete, fmt.Errorf("find athlete by caller: %w", err)
	}
	return id.AthleteID(athleteID), nil // #nosec G115
}

func findAchievement(ctx context.Context, q querier, key models.AchievementKey) (*models.Achievement, error) {
	achievement, err := scanAchievement(q.QueryRowContext(ctx, `
		SELECT athlete_id, id, title, description, is_verified, added_by, created_at
		FROM achievements
		WHERE athlete_id = $1 AND id = $2
	`, int64(key.AthleteID), int64(key.AchievementID))) // #nosec G115
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find achievement: %w", err)
	}
	return achievement, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanAthlete(r row) (*models.Athlete, error) {
	var (
		a       models.Athlete
		rawID   int64
		count   int64
		owner   string
		regTime time.Time
	)
	if err := r.Scan(&rawID, &a.Name, &a.Sport, &a.Age, &a.Country, &count, &a.Verified, &a.Active, &owner, &regTime); err != nil {
		return nil, err
	}
	a.ID = id.AthleteID(rawID)         // #nosec G115
	a.AchievementCount = uint64(count) // #nosec G115
	a.Owner = id.CallerID(owner)
	a.RegisteredAt = regTime.UTC()
	return &a, nil
}

func scanAchievement(r row) (*models.Achievement, error) {
	var (
		a         models.Achievement
		athleteID int64
		rawID     int64
		addedBy   string
	)
	if err := r.Scan(&athleteID, &rawID, &a.Title, &a.Description, &a.Verified, &addedBy, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.AthleteID = id.AthleteID(athleteID) // #nosec G115
	a.ID = id.AchievementID(rawID)        // #nosec G115
	a.AddedBy = id.CallerID(addedBy)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func scanEvent(r row) (*models.Event, error) {
	var (
		e             models.Event
		seq           int64
		eventType     string
		athleteID     int64
		achievementID int64
		caller        string
		publishedAt   sql.NullTime
	)
	if err := r.Scan(&seq, &eventType, &athleteID, &achievementID, &e.Name, &e.Title, &caller, &e.Verified, &e.OccurredAt, &publishedAt); err != nil {
		return nil, err
	}
	e.Seq = uint64(seq) // #nosec G115
	e.Type = models.EventType(eventType)
	e.AthleteID = id.AthleteID(athleteID)             // #nosec G115
	e.AchievementID = id.AchievementID(achievementID) // #nosec G115
	e.Caller = id.CallerID(caller)
	e.OccurredAt = e.OccurredAt.UTC()
	if publishedAt.Valid {
		at := publishedAt.Time.UTC()
		e.PublishedAt = &at
	}
	return &e, nil
}

func requireRow(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
