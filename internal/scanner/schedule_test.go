package scanner

import (
	"testing"
	"time"
)

func TestAlignToPeriod(t *testing.T) {
	period := 5 * time.Minute
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{
			time.Date(2024, 3, 1, 12, 7, 33, 0, time.UTC),
			time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC),
		},
		{
			time.Date(2024, 3, 1, 12, 10, 0, 0, time.UTC),
			time.Date(2024, 3, 1, 12, 10, 0, 0, time.UTC),
		},
		{
			time.Date(2024, 3, 1, 12, 4, 59, 999999999, time.UTC),
			time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, c := range cases {
		if got := alignToPeriod(c.now, period); !got.Equal(c.want) {
			t.Errorf("alignToPeriod(%v) = %v, want %v", c.now, got, c.want)
		}
	}
}

func TestNextPeriodStart(t *testing.T) {
	period := 5 * time.Minute
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{
			time.Date(2024, 3, 1, 12, 7, 33, 0, time.UTC),
			time.Date(2024, 3, 1, 12, 10, 0, 0, time.UTC),
		},
		{
			// Exactly on a boundary rolls to the following one.
			time.Date(2024, 3, 1, 12, 10, 0, 0, time.UTC),
			time.Date(2024, 3, 1, 12, 15, 0, 0, time.UTC),
		},
		{
			time.Date(2024, 3, 1, 23, 58, 30, 0, time.UTC),
			time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, c := range cases {
		got := nextPeriodStart(c.now, period)
		if !got.Equal(c.want) {
			t.Errorf("nextPeriodStart(%v) = %v, want %v", c.now, got, c.want)
		}
		if !got.After(c.now) {
			t.Errorf("nextPeriodStart(%v) = %v is not strictly after input", c.now, got)
		}
	}
}

func TestNextPeriodStartNormalizesZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2024, 3, 1, 15, 7, 33, 0, loc) // 12:07:33 UTC
	want := time.Date(2024, 3, 1, 12, 10, 0, 0, time.UTC)
	if got := nextPeriodStart(now, 5*time.Minute); !got.Equal(want) {
		t.Errorf("nextPeriodStart(%v) = %v, want %v", now, got, want)
	}
}
