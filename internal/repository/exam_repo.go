package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"examtracker/internal/database"
	"examtracker/internal/models"
	"examtracker/internal/validation"

	"github.com/Masterminds/squirrel"
)

// ErrNotFound is returned when an exam does not exist for the requesting owner
var ErrNotFound = errors.New("exam not found")

const dueOnLayout = "2006-01-02"

var examColumns = []string{"id", "owner_id", "name", "date", "prep"}

// ExamRepository handles database operations for exams. Every query is
// scoped to a single owner except the backup helpers ListAll and Restore.
type ExamRepository struct {
	db  *database.DB
	sb  squirrel.StatementBuilderType
	now func() time.Time
}

// NewExamRepository creates a new exam repository
func NewExamRepository(db *database.DB) *ExamRepository {
	return &ExamRepository{
		db: db,
		// Placeholders stay as ? and are rewritten by the dialect
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		now: time.Now,
	}
}

// WithClock returns a copy of the repository that uses now to decide which
// day is today
func (r *ExamRepository) WithClock(now func() time.Time) *ExamRepository {
	clone := *r
	clone.now = now
	return &clone
}

// Initialize makes sure the exams schema exists. Safe to call more than once.
func (r *ExamRepository) Initialize(ctx context.Context) error {
	if _, err := r.db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to initialize exam storage: %w", err)
	}
	return nil
}

// Add validates and stores a new exam and returns its ID
func (r *ExamRepository) Add(ctx context.Context, ownerID int64, name, dateText string, prep int) (int64, error) {
	name = strings.TrimSpace(name)
	dateText = strings.TrimSpace(dateText)

	date, err := validation.ValidateExam(name, dateText, prep, r.now())
	if err != nil {
		return 0, err
	}

	query, args, err := r.sb.Insert("exams").
		Columns("owner_id", "name", "date", "due_on", "prep").
		Values(ownerID, name, dateText, date.Format(dueOnLayout), prep).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert exam query: %w", err)
	}

	id, err := r.db.ExecReturningID(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create exam: %w", err)
	}

	return id, nil
}

// Get retrieves a single exam belonging to ownerID
func (r *ExamRepository) Get(ctx context.Context, ownerID, examID int64) (*models.Exam, error) {
	query, args, err := r.sb.Select(examColumns...).
		From("exams").
		Where(squirrel.Eq{"id": examID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get exam query: %w", err)
	}

	exam := &models.Exam{}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&exam.ID,
		&exam.OwnerID,
		&exam.Name,
		&exam.Date,
		&exam.Prep,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	return exam, nil
}

// List retrieves all exams of an owner ordered by date, then ID. Exams whose
// stored date does not parse come last.
func (r *ExamRepository) List(ctx context.Context, ownerID int64) ([]models.Exam, error) {
	query, args, err := r.sb.Select(examColumns...).
		From("exams").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("CASE WHEN due_on IS NULL THEN 1 ELSE 0 END", "due_on ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list exams query: %w", err)
	}

	return r.queryExams(ctx, r.db, query, args...)
}

// ListAll retrieves every exam of every owner ordered by ID
func (r *ExamRepository) ListAll(ctx context.Context) ([]models.Exam, error) {
	query, args, err := r.sb.Select(examColumns...).
		From("exams").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list all exams query: %w", err)
	}

	return r.queryExams(ctx, r.db, query, args...)
}

// Remove deletes an exam if it belongs to ownerID and reports whether a row was deleted
func (r *ExamRepository) Remove(ctx context.Context, ownerID, examID int64) (bool, error) {
	query, args, err := r.sb.Delete("exams").
		Where(squirrel.Eq{"id": examID, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete exam query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete exam: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// Clear deletes all exams of an owner and returns how many were removed
func (r *ExamRepository) Clear(ctx context.Context, ownerID int64) (int64, error) {
	query, args, err := r.sb.Delete("exams").
		Where(squirrel.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build clear exams query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear exams: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected, nil
}

// UpdatePrep changes the preparation percentage of one of the owner's exams
// and reports whether the exam exists
func (r *ExamRepository) UpdatePrep(ctx context.Context, ownerID, examID int64, prep int) (bool, error) {
	if err := validation.ValidatePrep(prep); err != nil {
		return false, err
	}

	found := false
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		// MySQL reports zero affected rows for an unchanged value, so
		// existence is checked separately
		var count int
		query, args, err := r.sb.Select("COUNT(*)").
			From("exams").
			Where(squirrel.Eq{"id": examID, "owner_id": ownerID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build exam lookup query: %w", err)
		}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
			return fmt.Errorf("failed to look up exam: %w", err)
		}
		if count == 0 {
			return nil
		}

		query, args, err = r.sb.Update("exams").
			Set("prep", prep).
			Where(squirrel.Eq{"id": examID, "owner_id": ownerID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update prep query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update prep: %w", err)
		}

		found = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return found, nil
}

// Restore inserts exams with their original IDs in a single transaction.
// With replace set, every existing exam is deleted first in the same
// transaction; otherwise exams whose ID already exists are skipped. It
// returns how many were inserted.
func (r *ExamRepository) Restore(ctx context.Context, exams []models.Exam, replace bool) (int, error) {
	inserted := 0
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if replace {
			query, args, err := r.sb.Delete("exams").ToSql()
			if err != nil {
				return fmt.Errorf("failed to build clear all exams query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to clear exams: %w", err)
			}
		}

		for _, exam := range exams {
			var count int
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM exams WHERE id = ?", exam.ID).Scan(&count); err != nil {
				return fmt.Errorf("failed to check exam %d: %w", exam.ID, err)
			}
			if count > 0 {
				continue
			}

			query, args, err := r.sb.Insert("exams").
				Columns("id", "owner_id", "name", "date", "due_on", "prep").
				Values(exam.ID, exam.OwnerID, exam.Name, exam.Date, dueOn(exam.Date), exam.Prep).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build restore exam query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to restore exam %d: %w", exam.ID, err)
			}
			inserted++
		}

		if reset := tx.GetDialect().ResetSequenceQuery("exams"); reset != "" {
			if _, err := tx.ExecContext(ctx, reset); err != nil {
				return fmt.Errorf("failed to reset exam id sequence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

func (r *ExamRepository) queryExams(ctx context.Context, db database.DBTX, query string, args ...interface{}) ([]models.Exam, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exams: %w", err)
	}
	defer rows.Close()

	exams := []models.Exam{}
	for rows.Next() {
		var exam models.Exam
		if err := rows.Scan(
			&exam.ID,
			&exam.OwnerID,
			&exam.Name,
			&exam.Date,
			&exam.Prep,
		); err != nil {
			return nil, fmt.Errorf("failed to scan exam: %w", err)
		}
		exams = append(exams, exam)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exams: %w", err)
	}

	return exams, nil
}

// dueOn converts a stored date to its sortable form, or NULL when it does not parse
func dueOn(dateText string) interface{} {
	date, err := validation.ParseDate(dateText)
	if err != nil {
		return nil
	}
	return date.Format(dueOnLayout)
}
