// Package dataset provides read access to the persisted dataset file for
// the dashboard API.
package dataset

import (
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"weather-dashboard/internal/forecast"
	"weather-dashboard/internal/storage"
)

// ErrCityNotFound is returned when the dataset holds no rows for a city.
var ErrCityNotFound = errors.New("no rows for city")

// Cache is a read-through cache over the dataset CSV, keyed by file
// modification time: the file is re-parsed only when it changes on disk.
// Safe for concurrent readers.
type Cache struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	modTime time.Time
	rows    []forecast.Row
}

// NewCache creates a Cache for the dataset file at path. The file does not
// need to exist yet; reads fail until the first pipeline run produces it.
func NewCache(path string, logger *slog.Logger) *Cache {
	return &Cache{path: path, logger: logger}
}

// Rows returns the current dataset, reloading it if the file changed since
// the last read. The returned slice is shared and must not be mutated.
func (c *Cache) Rows() ([]forecast.Row, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	if !c.modTime.IsZero() && info.ModTime().Equal(c.modTime) {
		rows := c.rows
		c.mu.RUnlock()
		return rows, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another reader may have reloaded while we waited for the lock.
	if !c.modTime.IsZero() && info.ModTime().Equal(c.modTime) {
		return c.rows, nil
	}

	rows, err := storage.ReadDataset(c.path)
	if err != nil {
		return nil, err
	}
	c.rows = rows
	c.modTime = info.ModTime()
	c.logger.Info("dataset reloaded", "path", c.path, "rows", len(rows))
	return rows, nil
}

// Cities returns the distinct city names in the dataset, sorted.
func (c *Cache) Cities() ([]string, error) {
	rows, err := c.Rows()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var cities []string
	for _, r := range rows {
		if _, ok := seen[r.City]; ok {
			continue
		}
		seen[r.City] = struct{}{}
		cities = append(cities, r.City)
	}
	sort.Strings(cities)
	return cities, nil
}

// CityRows returns the rows for one city in date order. Returns
// ErrCityNotFound when the dataset holds no rows for the city.
func (c *Cache) CityRows(city string) ([]forecast.Row, error) {
	rows, err := c.Rows()
	if err != nil {
		return nil, err
	}

	var out []forecast.Row
	for _, r := range rows {
		if r.City == city {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, ErrCityNotFound
	}
	return out, nil
}
