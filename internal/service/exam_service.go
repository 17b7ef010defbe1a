package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"examtracker/internal/models"
	"examtracker/internal/ranking"
	"examtracker/internal/repository"
	"examtracker/internal/validation"

	"github.com/rs/zerolog"
)

// ExamStore is the storage the exam service needs. It is implemented by
// repository.ExamRepository.
type ExamStore interface {
	Initialize(ctx context.Context) error
	Add(ctx context.Context, ownerID int64, name, dateText string, prep int) (int64, error)
	Get(ctx context.Context, ownerID, examID int64) (*models.Exam, error)
	List(ctx context.Context, ownerID int64) ([]models.Exam, error)
	Remove(ctx context.Context, ownerID, examID int64) (bool, error)
	Clear(ctx context.Context, ownerID int64) (int64, error)
	UpdatePrep(ctx context.Context, ownerID, examID int64, prep int) (bool, error)
}

// ExamService handles exam tracking and ranking
type ExamService struct {
	store ExamStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewExamService creates a new exam service. now decides the current day for
// ranking and may carry a time zone.
func NewExamService(store ExamStore, log zerolog.Logger, now func() time.Time) *ExamService {
	if now == nil {
		now = time.Now
	}
	return &ExamService{
		store: store,
		log:   log.With().Str("component", "exams").Logger(),
		now:   now,
	}
}

// Today returns the current time according to the service clock
func (s *ExamService) Today() time.Time {
	return s.now()
}

// Initialize prepares storage; call once before serving requests
func (s *ExamService) Initialize(ctx context.Context) error {
	if err := s.store.Initialize(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to initialize exam storage")
		return err
	}
	s.log.Info().Msg("Exam storage ready")
	return nil
}

// Add registers a new exam for an owner
func (s *ExamService) Add(ctx context.Context, ownerID int64, name, dateText string, prep int) (int64, error) {
	id, err := s.store.Add(ctx, ownerID, name, dateText, prep)
	if err != nil {
		s.logFailure(err, ownerID, "add")
		return 0, err
	}
	s.log.Info().Int64("owner_id", ownerID).Int64("exam_id", id).Msg("Exam added")
	return id, nil
}

// Get returns one of the owner's exams
func (s *ExamService) Get(ctx context.Context, ownerID, examID int64) (*models.Exam, error) {
	exam, err := s.store.Get(ctx, ownerID, examID)
	if err != nil {
		s.logFailure(err, ownerID, "get")
		return nil, err
	}
	return exam, nil
}

// List returns the owner's exams ordered by date
func (s *ExamService) List(ctx context.Context, ownerID int64) ([]models.Exam, error) {
	exams, err := s.store.List(ctx, ownerID)
	if err != nil {
		s.logFailure(err, ownerID, "list")
		return nil, err
	}
	return exams, nil
}

// Rank returns the owner's exams scored against today, most urgent first
func (s *ExamService) Rank(ctx context.Context, ownerID int64, today time.Time) ([]models.RankedExam, error) {
	exams, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to rank exams: %w", err)
	}

	ranked := ranking.Rank(exams, today)
	if dropped := len(exams) - len(ranked); dropped > 0 {
		s.log.Warn().Int64("owner_id", ownerID).Int("dropped", dropped).Msg("Skipped exams with unreadable dates")
	}
	return ranked, nil
}

// Remove deletes one of the owner's exams and reports whether it existed
func (s *ExamService) Remove(ctx context.Context, ownerID, examID int64) (bool, error) {
	removed, err := s.store.Remove(ctx, ownerID, examID)
	if err != nil {
		s.logFailure(err, ownerID, "remove")
		return false, err
	}
	if removed {
		s.log.Info().Int64("owner_id", ownerID).Int64("exam_id", examID).Msg("Exam removed")
	}
	return removed, nil
}

// Clear deletes all of the owner's exams
func (s *ExamService) Clear(ctx context.Context, ownerID int64) (int64, error) {
	n, err := s.store.Clear(ctx, ownerID)
	if err != nil {
		s.logFailure(err, ownerID, "clear")
		return 0, err
	}
	s.log.Info().Int64("owner_id", ownerID).Int64("removed", n).Msg("Exams cleared")
	return n, nil
}

// UpdatePrep records new preparation progress for an exam
func (s *ExamService) UpdatePrep(ctx context.Context, ownerID, examID int64, prep int) (bool, error) {
	found, err := s.store.UpdatePrep(ctx, ownerID, examID, prep)
	if err != nil {
		s.logFailure(err, ownerID, "update prep")
		return false, err
	}
	return found, nil
}

// logFailure keeps caller mistakes out of the error log; they are returned
// to the caller either way
func (s *ExamService) logFailure(err error, ownerID int64, op string) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		s.log.Debug().Int64("owner_id", ownerID).Str("op", op).Str("reason", string(verr.Reason)).Msg("Rejected input")
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Debug().Int64("owner_id", ownerID).Str("op", op).Msg("Exam not found")
		return
	}
	s.log.Error().Err(err).Int64("owner_id", ownerID).Str("op", op).Msg("Exam operation failed")
}
