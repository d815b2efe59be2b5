package question

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adolago/studypath/internal/planner"
)

const bankTimeout = 5 * time.Second

// PostgresBank serves questions from the questions table.
type PostgresBank struct {
	pool *pgxpool.Pool
}

// NewPostgresBank creates a bank backed by a pgx connection pool.
func NewPostgresBank(pool *pgxpool.Pool) *PostgresBank {
	return &PostgresBank{pool: pool}
}

// Questions returns the questions for a topic at one difficulty, ordered by
// creation time so selection is deterministic.
func (b *PostgresBank) Questions(ctx context.Context, topicID string, difficulty planner.Difficulty) ([]Question, error) {
	ctx, cancel := context.WithTimeout(ctx, bankTimeout)
	defer cancel()

	rows, err := b.pool.Query(ctx, `
		SELECT id, topic_id, difficulty, body
		FROM questions
		WHERE topic_id = $1 AND difficulty = $2
		ORDER BY created_at, id`,
		topicID, difficulty.String())
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		var diff string
		if err := rows.Scan(&q.ID, &q.TopicID, &diff, &q.Body); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Difficulty, err = planner.ParseDifficulty(diff)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces a question.
func (b *PostgresBank) Upsert(ctx context.Context, q Question) error {
	ctx, cancel := context.WithTimeout(ctx, bankTimeout)
	defer cancel()

	_, err := b.pool.Exec(ctx, `
		INSERT INTO questions (id, topic_id, difficulty, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			topic_id = EXCLUDED.topic_id,
			difficulty = EXCLUDED.difficulty,
			body = EXCLUDED.body`,
		q.ID, q.TopicID, q.Difficulty.String(), q.Body)
	if err != nil {
		return fmt.Errorf("upsert question %s: %w", q.ID, err)
	}
	return nil
}
