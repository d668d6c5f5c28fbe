package server

import (
	"testing"
	"time"
)

func TestValidateExpression(t *testing.T) {
	tests := []struct {
		expr     string
		timezone string
		wantErr  bool
	}{
		{"0 */6 * * *", "UTC", false},
		{"30 9 * * 1,3,5", "Europe/Berlin", false},
		{"0 9 * * 1-5", "UTC", false},
		{"not a cron", "UTC", true},
		{"61 * * * *", "UTC", true},
		{"0 9 * * *", "Mars/Olympus", true},
	}
	for _, tt := range tests {
		err := validateExpression(tt.expr, tt.timezone)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateExpression(%q, %q) = %v, wantErr %v", tt.expr, tt.timezone, err, tt.wantErr)
		}
	}
}

func TestNextRuns(t *testing.T) {
	// daily at 09:00 UTC, asked at 08:00 on the 15th
	from := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	got, err := nextRuns("0 9 * * *", "UTC", 3, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"2026-01-15T09:00:00Z",
		"2026-01-16T09:00:00Z",
		"2026-01-17T09:00:00Z",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d runs, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNextRuns_Timezone(t *testing.T) {
	// runs render in the schedule's zone, not UTC
	from := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	got, err := nextRuns("0 12 * * *", "Europe/Berlin", 1, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Berlin is UTC+2 in June
	if got[0] != "2026-06-15T12:00:00+02:00" {
		t.Errorf("run = %s", got[0])
	}
}

func TestNextRuns_BadExpression(t *testing.T) {
	if _, err := nextRuns("bogus", "UTC", 3, time.Now()); err == nil {
		t.Fatal("expected error")
	}
}
