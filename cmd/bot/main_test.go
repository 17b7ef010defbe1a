package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"examtracker/internal/commands"
	"examtracker/internal/database"
	"examtracker/internal/repository"
	"examtracker/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) *commands.Dispatcher {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := func() time.Time { return time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC) }
	svc := service.NewExamService(repository.NewExamRepository(db).WithClock(now), zerolog.Nop(), now)
	require.NoError(t, svc.Initialize(context.Background()))

	return commands.NewDispatcher(svc, nil, zerolog.Nop())
}

func TestRunWithOwnerPrefix(t *testing.T) {
	d := newDispatcher(t)
	in := strings.NewReader("1 !add OS 10-03-2026\n\n2 !list\nhello\n1 !list\n1 not a command\n")
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), d, in, &out, 0))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"Added exam #1: OS on 10-03-2026 (prep 0%).",
		"You have no exams yet. Usage: !add <name> <DD-MM-YYYY> [prep%]",
		"Start the line with your owner id, for example: 42 !list",
		"Your exams:",
		"#1 OS - 10-03-2026 (prep 0%)",
	}, lines)
}

func TestRunWithFixedOwner(t *testing.T) {
	d := newDispatcher(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), d, strings.NewReader("!ping\n"), &out, 9))
	assert.Equal(t, "pong\n", out.String())
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line      string
		owner     int64
		wantOwner int64
		wantMsg   string
		wantOK    bool
	}{
		{line: "42 !list", wantOwner: 42, wantMsg: "!list", wantOK: true},
		{line: "  42 !add OS 01-04-2026 ", wantOwner: 42, wantMsg: "!add OS 01-04-2026", wantOK: true},
		{line: "!list", owner: 7, wantOwner: 7, wantMsg: "!list", wantOK: true},
		{line: "!list"},
		{line: "abc !list"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			owner, msg, ok := splitLine(tt.line, tt.owner)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}
