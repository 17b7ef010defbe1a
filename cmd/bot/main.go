// Command bot runs the exam tracker chat commands against a line-based
// console. Each input line is either "<owner id> <message>" or, when -owner
// is set, just the message.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"examtracker/internal/commands"
	"examtracker/internal/config"
	"examtracker/internal/database"
	"examtracker/internal/logger"
	"examtracker/internal/repository"
	"examtracker/internal/security"
	"examtracker/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to a YAML config file")
	owner := flag.Int64("owner", 0, "Owner ID for every line (default: read it from the start of each line)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logger.MustNew("info", "console")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.MustNew(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve timezone")
	}
	now := func() time.Time { return time.Now().In(loc) }

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("database_type", cfg.DatabaseType).Msg("Failed to open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	examService := service.NewExamService(repository.NewExamRepository(db).WithClock(now), log, now)
	if err := examService.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize exam storage")
	}

	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	dispatcher := commands.NewDispatcher(examService, limiter, log)

	log.Info().Msg("Bot ready, type !help")
	if err := run(ctx, dispatcher, os.Stdin, os.Stdout, *owner); err != nil {
		log.Error().Err(err).Msg("Console loop stopped")
	}
}

// run reads messages from in until EOF or cancellation and writes replies to out
func run(ctx context.Context, d *commands.Dispatcher, in io.Reader, out io.Writer, owner int64) error {
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			if strings.TrimSpace(line) == "" {
				continue
			}

			ownerID, message, ok := splitLine(line, owner)
			if !ok {
				fmt.Fprintln(out, "Start the line with your owner id, for example: 42 !list")
				continue
			}

			if reply := d.Handle(ctx, ownerID, message); reply != "" {
				fmt.Fprintln(out, reply)
			}
		}
	}
}

func splitLine(line string, owner int64) (int64, string, bool) {
	line = strings.TrimSpace(line)
	if owner != 0 {
		return owner, line, true
	}

	head, rest, _ := strings.Cut(line, " ")
	id, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, rest, true
}
