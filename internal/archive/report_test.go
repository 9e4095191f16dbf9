package archive

import (
	"errors"
	"testing"
	"time"
)

func TestReductionPercent(t *testing.T) {
	tests := []struct {
		original, final int64
		want            int
	}{
		{1000, 500, 50},
		{1000, 1000, 0},
		{1000, 999, 0},
		{3, 1, 66},
		{1000, 1500, -50},
	}
	for _, tc := range tests {
		got, err := ReductionPercent(tc.original, tc.final)
		if err != nil {
			t.Fatalf("ReductionPercent(%d, %d) returned error: %v", tc.original, tc.final, err)
		}
		if got != tc.want {
			t.Errorf("ReductionPercent(%d, %d) = %d, want %d", tc.original, tc.final, got, tc.want)
		}
	}
}

func TestReductionPercentGuardsZero(t *testing.T) {
	if _, err := ReductionPercent(0, 10); !errors.Is(err, ErrZeroSizeInput) {
		t.Fatalf("expected ErrZeroSizeInput, got %v", err)
	}
}

func TestReportCountAndDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	report := &Report{
		Entries: []EntryResult{
			{Name: "a", Outcome: OutcomeCopied},
			{Name: "b", Outcome: OutcomeReduced},
			{Name: "c", Outcome: OutcomeCopied},
		},
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	}
	if got := report.Count(OutcomeCopied); got != 2 {
		t.Fatalf("Count(copied) = %d, want 2", got)
	}
	if got := report.Count(OutcomeFailed); got != 0 {
		t.Fatalf("Count(failed) = %d, want 0", got)
	}
	if got := report.Duration(); got != 3*time.Second {
		t.Fatalf("Duration = %v, want 3s", got)
	}
	var nilReport *Report
	if nilReport.Count(OutcomeCopied) != 0 || nilReport.Duration() != 0 {
		t.Fatal("nil report should be empty")
	}
}
