package validation

import (
	"errors"
	"testing"
	"time"
)

var today = time.Date(2026, time.January, 1, 15, 30, 0, 0, time.UTC)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "two digit day and month",
			input: "19-01-2026",
			want:  time.Date(2026, time.January, 19, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "single digit day and month",
			input: "9-1-2026",
			want:  time.Date(2026, time.January, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "surrounding whitespace",
			input: "  02-03-2026 ",
			want:  time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "iso order",
			input:   "2026-01-19",
			wantErr: true,
		},
		{
			name:    "not a date",
			input:   "not-a-date",
			wantErr: true,
		},
		{
			name:    "impossible day",
			input:   "30-02-2026",
			wantErr: true,
		},
		{
			name:    "two digit year",
			input:   "19-01-26",
			wantErr: true,
		},
		{
			name:    "trailing text",
			input:   "19-01-2026 noon",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !IsReason(err, ReasonDateFormat) {
					t.Errorf("ParseDate(%q) reason = %v, want %v", tt.input, err, ReasonDateFormat)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateExam(t *testing.T) {
	tests := []struct {
		name       string
		examName   string
		date       string
		prep       int
		wantReason Reason
	}{
		{name: "valid", examName: "OS", date: "19-01-2026", prep: 40},
		{name: "today is allowed", examName: "OS", date: "01-01-2026", prep: 0},
		{name: "boundary prep", examName: "OS", date: "02-01-2026", prep: 100},
		{name: "blank name", examName: "   ", date: "19-01-2026", wantReason: ReasonNameRequired},
		{name: "past date", examName: "OS", date: "15-01-2020", wantReason: ReasonDatePast},
		{name: "yesterday", examName: "OS", date: "31-12-2025", wantReason: ReasonDatePast},
		{name: "unparsable date", examName: "OS", date: "not-a-date", wantReason: ReasonDateFormat},
		{name: "negative prep", examName: "OS", date: "19-01-2026", prep: -1, wantReason: ReasonPrepRange},
		{name: "prep over 100", examName: "OS", date: "19-01-2026", prep: 101, wantReason: ReasonPrepRange},
		{name: "name checked before date", examName: "", date: "garbage", wantReason: ReasonNameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateExam(tt.examName, tt.date, tt.prep, today)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("ValidateExam() unexpected error: %v", err)
				}
				return
			}
			if !IsReason(err, tt.wantReason) {
				t.Errorf("ValidateExam() error = %v, want reason %v", err, tt.wantReason)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := ValidatePrep(150)

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if verr.Field != "prep" {
		t.Errorf("Field = %q, want prep", verr.Field)
	}
	if got := err.Error(); got != "prep: preparation must be between 0 and 100, got 150" {
		t.Errorf("Error() = %q", got)
	}
}

func TestDayIgnoresClockTime(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	late := time.Date(2026, time.March, 5, 23, 59, 0, 0, loc)

	got := Day(late)
	want := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day() = %v, want %v", got, want)
	}
}
