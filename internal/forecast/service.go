package forecast

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrNoData is returned when every location failed and there is nothing to
// persist. Callers must not write an artifact in that case.
var ErrNoData = errors.New("no location produced data")

// Sink persists a complete dataset. Each run overwrites the previous one.
type Sink interface {
	Name() string
	WriteRows(rows []Row) error
}

// Service runs the per-location pipeline across all configured locations
// and persists the combined dataset.
type Service struct {
	fetcher   Fetcher
	locations []Location
	sinks     []Sink
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(fetcher Fetcher, locations []Location, sinks []Sink, logger *slog.Logger) *Service {
	return &Service{
		fetcher:   fetcher,
		locations: locations,
		sinks:     sinks,
		logger:    logger,
	}
}

// Run fetches all locations concurrently and returns the combined dataset.
// A failed location is logged and skipped; it never aborts its siblings.
// Successful blocks are concatenated in city-name order so identical
// upstream responses always yield an identical table. Returns ErrNoData
// when no location succeeded.
func (s *Service) Run(ctx context.Context, today time.Time) ([]Row, error) {
	type block struct {
		city string
		rows []Row
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		blocks []block
	)

	for _, loc := range s.locations {
		wg.Add(1)
		go func(loc Location) {
			defer wg.Done()

			// A panicking location task must not take down the run.
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("location task panicked", "city", loc.Name, "panic", r)
				}
			}()

			rows, err := BuildRows(ctx, s.fetcher, s.logger, loc, today)
			if err != nil {
				s.logger.Error("skipping location", "city", loc.Name, "error", err)
				return
			}

			mu.Lock()
			blocks = append(blocks, block{city: loc.Name, rows: rows})
			mu.Unlock()
		}(loc)
	}
	wg.Wait()

	if len(blocks) == 0 {
		return nil, ErrNoData
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].city < blocks[j].city })

	rows := make([]Row, 0, len(blocks)*WindowDays)
	for _, b := range blocks {
		rows = append(rows, b.rows...)
	}

	s.logger.Info("pipeline run complete",
		"locations_ok", len(blocks),
		"locations_failed", len(s.locations)-len(blocks),
		"rows", len(rows))
	return rows, nil
}

// Refresh runs the pipeline and writes the result to every configured sink.
// Sink failures are independent: one failing sink does not stop the others,
// but any failure is reported to the caller.
func (s *Service) Refresh(ctx context.Context, today time.Time) error {
	rows, err := s.Run(ctx, today)
	if err != nil {
		return err
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.WriteRows(rows); err != nil {
			s.logger.Error("sink write failed", "sink", sink.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		s.logger.Info("dataset written", "sink", sink.Name(), "rows", len(rows))
	}
	return errors.Join(errs...)
}
