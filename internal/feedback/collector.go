// Package feedback persists (query, answer, rating) tuples as an
// append-only JSONL log for offline quality analysis.
package feedback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"supportrag/internal/domain"
)

// Collector appends records to a JSONL file, one record per line. Writes
// from a single caller keep their order; a failed write is logged as a
// warning and never surfaces to the query path.
type Collector struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

func NewCollector(path string, logger *slog.Logger) (*Collector, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: feedback log path is required", domain.ErrInvalidInput)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &Collector{path: path, logger: logger}, nil
}

// Log validates and appends one record. Only an invalid record is an error;
// a store failure degrades to a warning so the caller's query path is never
// blocked by the feedback log.
func (c *Collector) Log(record domain.FeedbackRecord) error {
	if record.Rating < 1 || record.Rating > 5 {
		return fmt.Errorf("%w: rating %d outside [1,5]", domain.ErrInvalidInput, record.Rating)
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.append(record); err != nil {
		c.logger.Warn("feedback write failed", "path", c.path, "error", err)
	}
	return nil
}

func (c *Collector) append(record domain.FeedbackRecord) error {
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// Stats summarizes the feedback log.
type Stats struct {
	Total         int
	Rated         int
	AverageRating float64
}

// Stats reads the whole log. A missing file means no feedback yet, not an
// error.
func (c *Collector) Stats() (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Stats{}, nil
		}
		return Stats{}, err
	}
	defer f.Close()

	var stats Stats
	var sum int
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec domain.FeedbackRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			c.logger.Warn("skipping unparseable feedback line", "error", err)
			continue
		}
		stats.Total++
		if rec.Rating >= 1 && rec.Rating <= 5 {
			stats.Rated++
			sum += rec.Rating
		}
	}
	if err := sc.Err(); err != nil {
		return Stats{}, err
	}
	if stats.Rated > 0 {
		stats.AverageRating = float64(sum) / float64(stats.Rated)
	}
	return stats, nil
}
