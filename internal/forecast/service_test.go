package forecast

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memorySink records WriteRows calls.
type memorySink struct {
	name   string
	err    error
	writes int
	rows   []Row
}

func (s *memorySink) Name() string { return s.name }

func (s *memorySink) WriteRows(rows []Row) error {
	s.writes++
	if s.err != nil {
		return s.err
	}
	s.rows = rows
	return nil
}

// failFor returns a fetcher that fails the forecast call for the named
// cities and succeeds for everyone else.
func failFor(cities ...string) *stubFetcher {
	failed := make(map[string]bool, len(cities))
	for _, c := range cities {
		failed[c] = true
	}
	return &stubFetcher{
		daily: func(loc Location, start, _ time.Time) (*DailyForecast, error) {
			if failed[loc.Name] {
				return nil, errors.New("unreachable")
			}
			return makeDaily(start), nil
		},
	}
}

var testLocations = []Location{
	{Name: "Tokyo", Lat: 35.6895, Lon: 139.6917},
	{Name: "Bangkok", Lat: 13.7563, Lon: 100.5018},
	{Name: "London", Lat: 51.5074, Lon: -0.1278},
}

func TestRunCombinesAllLocations(t *testing.T) {
	svc := NewService(failFor(), testLocations, nil, testLogger())

	rows, err := svc.Run(context.Background(), testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := len(testLocations) * WindowDays; len(rows) != want {
		t.Fatalf("got %d rows, want %d", len(rows), want)
	}

	// Blocks are ordered by city name for deterministic output.
	wantOrder := []string{"Bangkok", "London", "Tokyo"}
	for b, city := range wantOrder {
		for i := 0; i < WindowDays; i++ {
			if got := rows[b*WindowDays+i].City; got != city {
				t.Fatalf("row %d city = %q, want %q", b*WindowDays+i, got, city)
			}
		}
	}
}

func TestRunSkipsFailedLocation(t *testing.T) {
	svc := NewService(failFor("Bangkok"), testLocations, nil, testLogger())

	rows, err := svc.Run(context.Background(), testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 2 * WindowDays; len(rows) != want {
		t.Fatalf("got %d rows, want %d", len(rows), want)
	}
	for _, row := range rows {
		if row.City == "Bangkok" {
			t.Fatal("failed location leaked into the dataset")
		}
	}
}

func TestRunAllLocationsFailed(t *testing.T) {
	svc := NewService(failFor("Tokyo", "Bangkok", "London"), testLocations, nil, testLogger())

	rows, err := svc.Run(context.Background(), testToday)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if rows != nil {
		t.Fatalf("got %d rows, want none", len(rows))
	}
}

func TestRunSurvivesPanickingTask(t *testing.T) {
	fetcher := &stubFetcher{
		daily: func(loc Location, start, _ time.Time) (*DailyForecast, error) {
			if loc.Name == "Bangkok" {
				panic("boom")
			}
			return makeDaily(start), nil
		},
	}
	svc := NewService(fetcher, testLocations, nil, testLogger())

	rows, err := svc.Run(context.Background(), testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 2 * WindowDays; len(rows) != want {
		t.Fatalf("got %d rows, want %d", len(rows), want)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	svc := NewService(failFor(), testLocations, nil, testLogger())

	first, err := svc.Run(context.Background(), testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Run(context.Background(), testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].City != second[i].City || !first[i].Date.Equal(second[i].Date) {
			t.Fatalf("row %d differs between runs", i)
		}
	}
}

func TestRefreshWritesAllSinks(t *testing.T) {
	csv := &memorySink{name: "csv"}
	pg := &memorySink{name: "postgres"}
	svc := NewService(failFor(), testLocations, []Sink{csv, pg}, testLogger())

	if err := svc.Refresh(context.Background(), testToday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(csv.rows) == 0 || len(pg.rows) == 0 {
		t.Fatal("not all sinks received the dataset")
	}
}

func TestRefreshSkipsSinksWhenNoData(t *testing.T) {
	sink := &memorySink{name: "csv"}
	svc := NewService(failFor("Tokyo", "Bangkok", "London"), testLocations, []Sink{sink}, testLogger())

	err := svc.Refresh(context.Background(), testToday)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if sink.writes != 0 {
		t.Fatal("sink written despite zero successes")
	}
}

func TestRefreshSinkFailureDoesNotBlockOthers(t *testing.T) {
	broken := &memorySink{name: "csv", err: errors.New("disk full")}
	ok := &memorySink{name: "postgres"}
	svc := NewService(failFor(), testLocations, []Sink{broken, ok}, testLogger())

	err := svc.Refresh(context.Background(), testToday)
	if err == nil {
		t.Fatal("expected the sink failure to surface")
	}
	if len(ok.rows) == 0 {
		t.Fatal("healthy sink skipped after sibling failure")
	}
}
