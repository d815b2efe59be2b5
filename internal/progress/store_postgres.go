package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adolago/studypath/internal/mastery"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) GetMastery(ctx context.Context, learnerID, topicID string) (*mastery.Record, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT learner_id, topic_id, level, stage, practice_count,
		        accuracy_7d, accuracy_30d, avg_time_ms, stability,
		        last_practiced_at, next_review_at
		 FROM mastery_records
		 WHERE learner_id = $1 AND topic_id = $2
		 LIMIT 1`,
		learnerID, topicID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("query mastery record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}
	rec, err := scanMastery(rows.Scan)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (s *PostgresStore) AllMastery(ctx context.Context, learnerID string) (map[string]*mastery.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT learner_id, topic_id, level, stage, practice_count,
		        accuracy_7d, accuracy_30d, avg_time_ms, stability,
		        last_practiced_at, next_review_at
		 FROM mastery_records
		 WHERE learner_id = $1`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query mastery records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*mastery.Record)
	for rows.Next() {
		rec, err := scanMastery(rows.Scan)
		if err != nil {
			return nil, err
		}
		records[rec.TopicID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mastery records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) UpsertMastery(ctx context.Context, rec *mastery.Record) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO mastery_records
		   (learner_id, topic_id, level, stage, practice_count,
		    accuracy_7d, accuracy_30d, avg_time_ms, stability,
		    last_practiced_at, next_review_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		 ON CONFLICT (learner_id, topic_id) DO UPDATE SET
		   level = EXCLUDED.level,
		   stage = EXCLUDED.stage,
		   practice_count = EXCLUDED.practice_count,
		   accuracy_7d = EXCLUDED.accuracy_7d,
		   accuracy_30d = EXCLUDED.accuracy_30d,
		   avg_time_ms = EXCLUDED.avg_time_ms,
		   stability = EXCLUDED.stability,
		   last_practiced_at = EXCLUDED.last_practiced_at,
		   next_review_at = EXCLUDED.next_review_at,
		   updated_at = NOW()`,
		rec.LearnerID,
		rec.TopicID,
		rec.Level,
		string(rec.Stage),
		rec.PracticeCount,
		rec.Accuracy7d,
		rec.Accuracy30d,
		rec.AvgTimeMs,
		rec.Stability,
		nullIfZeroTime(rec.LastPracticedAt),
		nullIfZeroTime(rec.NextReviewAt),
	)
	if err != nil {
		return fmt.Errorf("upsert mastery record: %w", err)
	}
	return nil
}

func (s *PostgresStore) AllQueueEntries(ctx context.Context, learnerID string) ([]ReviewQueueEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT learner_id, topic_id, scheduled_at, interval_hours, urgency
		 FROM review_queue
		 WHERE learner_id = $1
		 ORDER BY topic_id ASC`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query review queue: %w", err)
	}
	defer rows.Close()

	var entries []ReviewQueueEntry
	for rows.Next() {
		var entry ReviewQueueEntry
		var intervalHours float64
		if err := rows.Scan(
			&entry.LearnerID,
			&entry.TopicID,
			&entry.ScheduledAt,
			&intervalHours,
			&entry.Urgency,
		); err != nil {
			return nil, fmt.Errorf("scan review queue entry: %w", err)
		}
		entry.Interval = time.Duration(intervalHours * float64(time.Hour))
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review queue: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) UpsertQueueEntry(ctx context.Context, entry ReviewQueueEntry) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO review_queue
		   (learner_id, topic_id, scheduled_at, interval_hours, urgency, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (learner_id, topic_id) DO UPDATE SET
		   scheduled_at = EXCLUDED.scheduled_at,
		   interval_hours = EXCLUDED.interval_hours,
		   urgency = EXCLUDED.urgency,
		   updated_at = NOW()`,
		entry.LearnerID,
		entry.TopicID,
		entry.ScheduledAt,
		entry.Interval.Hours(),
		entry.Urgency,
	)
	if err != nil {
		return fmt.Errorf("upsert review queue entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendAttempt(ctx context.Context, attempt mastery.Attempt) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if attempt.LearnerID == "" {
		return fmt.Errorf("attempt learner_id is required")
	}
	if attempt.TopicID == "" {
		return fmt.Errorf("attempt topic_id is required")
	}

	createdAt := attempt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO attempts
		   (id, learner_id, question_id, topic_id, correct, time_ms,
		    error_kind, support_level, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		attempt.ID,
		attempt.LearnerID,
		attempt.QuestionID,
		attempt.TopicID,
		attempt.Correct,
		attempt.TimeMs,
		nullIfEmpty(attempt.ErrorKind),
		attempt.SupportLevel,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *PostgresStore) TopicAttempts(ctx context.Context, learnerID, topicID string, since time.Time) ([]mastery.Attempt, error) {
	return s.queryAttempts(ctx,
		`SELECT id, learner_id, question_id, topic_id, correct, time_ms,
		        error_kind, support_level, created_at
		 FROM attempts
		 WHERE learner_id = $1 AND topic_id = $2 AND created_at >= $3
		 ORDER BY created_at ASC`,
		learnerID, topicID, since,
	)
}

func (s *PostgresStore) RecentAttempts(ctx context.Context, learnerID string, since time.Time) ([]mastery.Attempt, error) {
	return s.queryAttempts(ctx,
		`SELECT id, learner_id, question_id, topic_id, correct, time_ms,
		        error_kind, support_level, created_at
		 FROM attempts
		 WHERE learner_id = $1 AND created_at >= $2
		 ORDER BY created_at ASC`,
		learnerID, since,
	)
}

func (s *PostgresStore) queryAttempts(ctx context.Context, query string, args ...any) ([]mastery.Attempt, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []mastery.Attempt
	for rows.Next() {
		var a mastery.Attempt
		var errorKind *string
		if err := rows.Scan(
			&a.ID,
			&a.LearnerID,
			&a.QuestionID,
			&a.TopicID,
			&a.Correct,
			&a.TimeMs,
			&errorKind,
			&a.SupportLevel,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if errorKind != nil {
			a.ErrorKind = *errorKind
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

type scanFunc func(dest ...any) error

func scanMastery(scan scanFunc) (*mastery.Record, error) {
	var rec mastery.Record
	var stage string
	var lastPracticedAt, nextReviewAt *time.Time
	if err := scan(
		&rec.LearnerID,
		&rec.TopicID,
		&rec.Level,
		&stage,
		&rec.PracticeCount,
		&rec.Accuracy7d,
		&rec.Accuracy30d,
		&rec.AvgTimeMs,
		&rec.Stability,
		&lastPracticedAt,
		&nextReviewAt,
	); err != nil {
		return nil, fmt.Errorf("scan mastery record: %w", err)
	}
	rec.Stage = mastery.Stage(stage)
	if lastPracticedAt != nil {
		rec.LastPracticedAt = *lastPracticedAt
	}
	if nextReviewAt != nil {
		rec.NextReviewAt = *nextReviewAt
	}
	return &rec, nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
