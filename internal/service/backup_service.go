package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"examtracker/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BackupVersion is written into every export and checked on import
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string        `json:"version"`
	ExportID     string        `json:"export_id"`
	ExportedAt   time.Time     `json:"exported_at"`
	DatabaseType string        `json:"database_type"`
	Exams        []models.Exam `json:"exams"`
}

// BackupStore is the storage the backup service reads from and restores into
type BackupStore interface {
	ListAll(ctx context.Context) ([]models.Exam, error)
	Restore(ctx context.Context, exams []models.Exam, replace bool) (int, error)
}

// BackupService handles database backup and restore operations
type BackupService struct {
	store        BackupStore
	databaseType string
	log          zerolog.Logger
	now          func() time.Time
}

// NewBackupService creates a new backup service
func NewBackupService(store BackupStore, databaseType string, log zerolog.Logger) *BackupService {
	return &BackupService{
		store:        store,
		databaseType: databaseType,
		log:          log.With().Str("component", "backup").Logger(),
		now:          time.Now,
	}
}

// Export writes every exam of every owner to w as JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	exams, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export exams: %w", err)
	}

	backup := &BackupData{
		Version:      BackupVersion,
		ExportID:     uuid.New().String(),
		ExportedAt:   s.now().UTC(),
		DatabaseType: s.databaseType,
		Exams:        exams,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info().Str("export_id", backup.ExportID).Int("exams", len(exams)).Msg("Database exported")
	return backup, nil
}

// Import restores exams from a backup produced by Export. Exams already
// present (by ID) are left untouched unless replace is set, in which case
// all stored exams are swapped for the backup's in one transaction. The
// backup is fully decoded and checked before storage is touched. It returns
// how many exams were inserted.
func (s *BackupService) Import(ctx context.Context, r io.Reader, replace bool) (int, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return 0, fmt.Errorf("failed to decode backup: %w", err)
	}

	if backup.Version != BackupVersion {
		return 0, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.log.Info().
		Str("export_id", backup.ExportID).
		Time("exported_at", backup.ExportedAt).
		Str("source", backup.DatabaseType).
		Int("exams", len(backup.Exams)).
		Bool("replace", replace).
		Msg("Starting import")

	inserted, err := s.store.Restore(ctx, backup.Exams, replace)
	if err != nil {
		return 0, fmt.Errorf("failed to import exams: %w", err)
	}

	s.log.Info().Int("inserted", inserted).Int("skipped", len(backup.Exams)-inserted).Msg("Import complete")
	return inserted, nil
}
