package core

import (
	"testing"
	"time"
)

func TestParseEmailDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{
			name: "rfc2822 with zone",
			raw:  "Wed, 15 Jan 2025 10:30:00 -0800",
			want: time.Date(2025, 1, 15, 18, 30, 0, 0, time.UTC),
		},
		{
			name: "rfc1123",
			raw:  "Wed, 15 Jan 2025 10:30:00 UTC",
			want: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "single digit day",
			raw:  "Mon, 3 Feb 2025 09:00:00 +0000",
			want: time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "future date rolled back one year",
			raw:  "Mon, 15 Dec 2025 10:00:00 +0000",
			want: time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "garbage",
			raw:     "not a date",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEmailDate(tt.raw, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("result not normalized to UTC: %v", got.Location())
			}
		})
	}
}

func TestParseISO(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{
			name: "rfc3339",
			raw:  "2025-01-15T10:30:00Z",
			want: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "offset aware",
			raw:  "2025-01-15T10:30:00-05:00",
			want: time.Date(2025, 1, 15, 15, 30, 0, 0, time.UTC),
		},
		{
			name: "naive treated as utc",
			raw:  "2025-01-15T10:30:00",
			want: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "naive with microseconds",
			raw:  "2025-01-15T10:30:00.123456",
			want: time.Date(2025, 1, 15, 10, 30, 0, 123456000, time.UTC),
		},
		{
			name: "space separated",
			raw:  "2025-01-15 10:30:00",
			want: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "date only",
			raw:  "2025-01-15",
			want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "garbage",
			raw:     "yesterday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseISO(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDOI(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "iso",
			raw:    "2022-03-15",
			want:   time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "us slashes",
			raw:    "03/15/2022",
			want:   time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "us dashes",
			raw:    "03-15-2022",
			want:   time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "sentinel parses as a date",
			raw:    "2099-01-01",
			want:   time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
			wantOK: true,
		},
		{name: "empty", raw: ""},
		{name: "whitespace", raw: "   "},
		{name: "none keyword", raw: "NONE"},
		{name: "none lowercase", raw: "none"},
		{name: "garbage", raw: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDOI(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := DaysBetween(base.AddDate(0, 0, -90), base); got != 90 {
		t.Errorf("got %d, want 90", got)
	}
	if got := DaysBetween(base, base); got != 0 {
		t.Errorf("same instant: got %d, want 0", got)
	}
	// Future "earlier" clamps instead of going negative.
	if got := DaysBetween(base.AddDate(0, 0, 5), base); got != 0 {
		t.Errorf("future earlier: got %d, want 0", got)
	}
	// Partial days round down.
	if got := DaysBetween(base.Add(-36*time.Hour), base); got != 1 {
		t.Errorf("36 hours: got %d, want 1", got)
	}
}
