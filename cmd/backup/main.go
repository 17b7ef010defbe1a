package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"examtracker/internal/config"
	"examtracker/internal/database"
	"examtracker/internal/logger"
	"examtracker/internal/repository"
	"examtracker/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing exams before import (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt for -clear")

	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log := logger.MustNew("info", "console")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.MustNew(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	repo := repository.NewExamRepository(db)
	if err := repo.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	backupService := service.NewBackupService(repo, cfg.DatabaseType, log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := handleExport(ctx, backupService, *exportOutput, log); err != nil {
			log.Fatal().Err(err).Msg("Export failed")
		}

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}

		if *importClear && !*importYes && !confirm(os.Stdin, os.Stdout) {
			log.Info().Msg("Import cancelled")
			return
		}

		if err := handleImport(ctx, backupService, *importInput, *importClear, log); err != nil {
			log.Fatal().Err(err).Msg("Import failed")
		}

	default:
		printUsage(os.Stdout)
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string, log zerolog.Logger) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	backup, err := backupService.Export(ctx, file)
	if err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}

	log.Info().
		Str("path", outputPath).
		Str("export_id", backup.ExportID).
		Int("exams", len(backup.Exams)).
		Msg("Export complete")
	return nil
}

// handleImport restores inputPath. With clearData the existing exams are
// replaced in the same transaction as the restore, so a rejected backup
// leaves them in place.
func handleImport(ctx context.Context, backupService *service.BackupService, inputPath string, clearData bool, log zerolog.Logger) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	inserted, err := backupService.Import(ctx, file, clearData)
	if err != nil {
		return err
	}

	log.Info().Str("path", inputPath).Bool("replaced", clearData).Int("exams", inserted).Msg("Import complete")
	return nil
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "WARNING: This will delete all existing exams. Type 'yes' to confirm: ")
	answer, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Exam Tracker Backup Tool

Usage:
  backup export [options]    Export all exams to a JSON file
  backup import [options]    Import exams from a JSON file

Export Options:
  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)

Import Options:
  -input <file>     Input file path (required)
  -clear            Clear existing exams before import (WARNING: destructive)
  -yes              Do not ask for confirmation when clearing

Examples:
  backup export -output exams.json
  backup import -input exams.json
  backup import -input exams.json -clear

Environment Variables:
  DATABASE_TYPE    Database type: sqlite, postgres, pgx or mysql (default: sqlite)
  DB_PATH          SQLite database path (default: ./data.db)
  DATABASE_URL     PostgreSQL or MySQL connection URL
  CONFIG_PATH      Optional YAML config file
`)
}
