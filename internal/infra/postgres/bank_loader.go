package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"course-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader loads trivia levels (one JSONB row per level) from Postgres.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context) (domain.QuestionBank, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM trivia_levels ORDER BY position`)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load question bank: %w", err)
	}
	defer rows.Close()

	var bank domain.QuestionBank
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return domain.QuestionBank{}, fmt.Errorf("scan level: %w", err)
		}
		var level domain.Level
		if err := json.Unmarshal(raw, &level); err != nil {
			return domain.QuestionBank{}, fmt.Errorf("unmarshal level: %w", err)
		}
		bank.Levels = append(bank.Levels, level)
	}
	if err := rows.Err(); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load question bank: %w", err)
	}
	return bank, nil
}
