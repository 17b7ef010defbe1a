// Package commands turns chat messages into exam tracker calls and renders
// the results as plain text replies.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"examtracker/internal/models"
	"examtracker/internal/security"
	"examtracker/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Prefix marks a chat message as a command
const Prefix = "!"

const (
	addUsage    = "Usage: !add <name> <DD-MM-YYYY> [prep%]"
	removeUsage = "Usage: !remove <exam id>"
	prepUsage   = "Usage: !prep <exam id> <0-100>"

	internalErrorReply = "Something went wrong on my side, please try again."
	rateLimitedReply   = "Slow down a little, try again in a minute."
)

// ExamTracker is the part of the exam service the dispatcher drives
type ExamTracker interface {
	Today() time.Time
	Add(ctx context.Context, ownerID int64, name, dateText string, prep int) (int64, error)
	List(ctx context.Context, ownerID int64) ([]models.Exam, error)
	Rank(ctx context.Context, ownerID int64, today time.Time) ([]models.RankedExam, error)
	Remove(ctx context.Context, ownerID, examID int64) (bool, error)
	Clear(ctx context.Context, ownerID int64) (int64, error)
	UpdatePrep(ctx context.Context, ownerID, examID int64, prep int) (bool, error)
}

type handlerFunc func(ctx context.Context, ownerID int64, args []string) (string, error)

// Dispatcher routes chat commands to the exam tracker
type Dispatcher struct {
	exams    ExamTracker
	limiter  *security.RateLimiter
	log      zerolog.Logger
	handlers map[string]handlerFunc
}

// NewDispatcher creates a dispatcher. limiter may be nil to disable rate limiting.
func NewDispatcher(exams ExamTracker, limiter *security.RateLimiter, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		exams:   exams,
		limiter: limiter,
		log:     log.With().Str("component", "commands").Logger(),
	}
	d.handlers = map[string]handlerFunc{
		"add":      d.add,
		"list":     d.list,
		"rank":     d.rank,
		"priority": d.rank,
		"remove":   d.remove,
		"clear":    d.clear,
		"prep":     d.prep,
		"ping":     d.ping,
		"help":     d.help,
	}
	return d
}

// Handle runs one chat message for ownerID and returns the reply. Messages
// that are not commands get an empty reply.
func (d *Dispatcher) Handle(ctx context.Context, ownerID int64, message string) string {
	message = strings.TrimSpace(message)
	if !strings.HasPrefix(message, Prefix) {
		return ""
	}

	args, err := splitArgs(strings.TrimPrefix(message, Prefix))
	if err != nil {
		return "I couldn't read that command: " + err.Error() + "."
	}
	if len(args) == 0 {
		return ""
	}

	name := strings.ToLower(args[0])
	handler, ok := d.handlers[name]
	if !ok {
		return fmt.Sprintf("Unknown command %s%s. Try !help.", Prefix, name)
	}

	log := d.log.With().
		Str("request_id", uuid.New().String()).
		Int64("owner_id", ownerID).
		Str("command", name).
		Logger()

	if d.limiter != nil && !d.limiter.Allow(strconv.FormatInt(ownerID, 10)) {
		log.Warn().Msg("Rate limited")
		return rateLimitedReply
	}

	start := time.Now()
	reply, err := handler(ctx, ownerID, args[1:])
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			log.Debug().Str("reason", string(verr.Reason)).Msg("Rejected input")
			return validationReply(verr)
		}
		log.Error().Err(err).Msg("Command failed")
		return internalErrorReply
	}

	log.Debug().Dur("took", time.Since(start)).Msg("Command handled")
	return reply
}

func (d *Dispatcher) add(ctx context.Context, ownerID int64, args []string) (string, error) {
	name, date, prep, ok := parseAddArgs(args)
	if !ok {
		return addUsage, nil
	}

	id, err := d.exams.Add(ctx, ownerID, name, date, prep)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Added exam #%d: %s on %s (prep %d%%).", id, strings.TrimSpace(name), strings.TrimSpace(date), prep), nil
}

func (d *Dispatcher) list(ctx context.Context, ownerID int64, args []string) (string, error) {
	exams, err := d.exams.List(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if len(exams) == 0 {
		return "You have no exams yet. " + addUsage, nil
	}

	var b strings.Builder
	b.WriteString("Your exams:")
	for _, exam := range exams {
		fmt.Fprintf(&b, "\n#%d %s - %s (prep %d%%)", exam.ID, exam.Name, exam.Date, exam.Prep)
	}
	return b.String(), nil
}

func (d *Dispatcher) rank(ctx context.Context, ownerID int64, args []string) (string, error) {
	today := d.exams.Today()
	ranked, err := d.exams.Rank(ctx, ownerID, today)
	if err != nil {
		return "", err
	}
	if len(ranked) == 0 {
		return "Nothing to rank yet. " + addUsage, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Study priorities as of %s:", today.Format(models.DateLayout))
	for i, r := range ranked {
		fmt.Fprintf(&b, "\n%d. %s (#%d) - %s, prep %d%%, urgency %d, score %d",
			i+1, r.Name, r.ID, describeDays(r), r.Prep, r.UrgencyLevel, r.PriorityScore)
	}
	return b.String(), nil
}

func (d *Dispatcher) remove(ctx context.Context, ownerID int64, args []string) (string, error) {
	if len(args) != 1 {
		return removeUsage, nil
	}
	examID, ok := parseExamID(args[0])
	if !ok {
		return removeUsage, nil
	}

	removed, err := d.exams.Remove(ctx, ownerID, examID)
	if err != nil {
		return "", err
	}
	if !removed {
		return fmt.Sprintf("No exam #%d found.", examID), nil
	}
	return fmt.Sprintf("Removed exam #%d.", examID), nil
}

func (d *Dispatcher) clear(ctx context.Context, ownerID int64, args []string) (string, error) {
	n, err := d.exams.Clear(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "You had no exams to clear.", nil
	}
	return fmt.Sprintf("Cleared %d exam(s).", n), nil
}

func (d *Dispatcher) prep(ctx context.Context, ownerID int64, args []string) (string, error) {
	if len(args) != 2 {
		return prepUsage, nil
	}
	examID, ok := parseExamID(args[0])
	if !ok {
		return prepUsage, nil
	}
	prep, ok := parsePrep(args[1])
	if !ok {
		return prepUsage, nil
	}

	found, err := d.exams.UpdatePrep(ctx, ownerID, examID, prep)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("No exam #%d found.", examID), nil
	}
	return fmt.Sprintf("Exam #%d is now %d%% prepared.", examID, prep), nil
}

func (d *Dispatcher) ping(ctx context.Context, ownerID int64, args []string) (string, error) {
	return "pong", nil
}

func (d *Dispatcher) help(ctx context.Context, ownerID int64, args []string) (string, error) {
	return strings.Join([]string{
		"Commands:",
		"!add <name> <DD-MM-YYYY> [prep%] - register an exam",
		"!list - show your exams by date",
		"!rank - show your exams by study priority",
		"!prep <exam id> <0-100> - update how prepared you are",
		"!remove <exam id> - delete an exam",
		"!clear - delete all your exams",
	}, "\n"), nil
}

// parseAddArgs reads "<name...> <date> [prep]". Unquoted multi-word names are
// joined back together; a trailing number is the prep percentage.
func parseAddArgs(args []string) (name, date string, prep int, ok bool) {
	if len(args) < 2 {
		return "", "", 0, false
	}

	if len(args) >= 3 {
		if p, isPrep := parsePrep(args[len(args)-1]); isPrep {
			prep = p
			args = args[:len(args)-1]
		}
	}

	date = args[len(args)-1]
	name = strings.Join(args[:len(args)-1], " ")
	return name, date, prep, true
}

// parsePrep accepts "40" and "40%". Range is checked by validation.
func parsePrep(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseExamID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func describeDays(r models.RankedExam) string {
	days := r.DaysUntil
	if r.IsOverdue() {
		switch days {
		case 0:
			return "today"
		case -1:
			return "overdue by 1 day"
		default:
			return fmt.Sprintf("overdue by %d days", -days)
		}
	}
	if days == 1 {
		return "tomorrow"
	}
	return fmt.Sprintf("in %d days", days)
}

func validationReply(err *validation.Error) string {
	switch err.Reason {
	case validation.ReasonDateFormat:
		return "I couldn't read that date. Use DD-MM-YYYY, for example 19-01-2027."
	case validation.ReasonDatePast:
		return "That date is in the past, pick today or a later day."
	case validation.ReasonNameRequired:
		return "Please give the exam a name. " + addUsage
	case validation.ReasonPrepRange:
		return "Preparation must be a percentage between 0 and 100."
	default:
		return err.Error()
	}
}
