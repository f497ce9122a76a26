package repository

import (
	"context"
	"database/sql"
	"fmt"
	"oj_account/internal/domain/model"
	"oj_account/internal/platform/database"
)

// SubmissionRepository reads judged submissions. Rows are written by the
// judge, never by this service.
type SubmissionRepository interface {
	// FindByUser returns the user's full history ordered by submission id.
	FindByUser(ctx context.Context, userID int64) ([]model.SubmissionRecord, error)
}

type sqlSubmissionRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQLSubmissionRepository(db *sql.DB, dialect database.Dialect) SubmissionRepository {
	return &sqlSubmissionRepository{db: db, dialect: dialect}
}

func (r *sqlSubmissionRepository) FindByUser(ctx context.Context, userID int64) ([]model.SubmissionRecord, error) {
	query := r.dialect.Rebind(`SELECT problem_id, language, result, created_by
	          FROM solution WHERE created_by = ? ORDER BY solution_id`)
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlSubmissionRepository.FindByUser: %w", err)
	}
	defer rows.Close()

	var records []model.SubmissionRecord
	for rows.Next() {
		var (
			rec    model.SubmissionRecord
			result int
		)
		if err := rows.Scan(&rec.ProblemID, &rec.Language, &result, &rec.UserID); err != nil {
			return nil, fmt.Errorf("sqlSubmissionRepository.FindByUser scan: %w", err)
		}
		rec.Result = model.Verdict(result)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlSubmissionRepository.FindByUser rows: %w", err)
	}
	return records, nil
}
