package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ProgressStats summarizes a migration run across resumes.
type ProgressStats struct {
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

type progressState struct {
	MigratedIDs []string      `json:"migrated_ids"`
	Stats       ProgressStats `json:"stats"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Progress persists migrated public IDs to a JSON resume file so an
// interrupted migration continues without duplicate uploads. A flat file is
// enough for a single-operator batch tool; concurrent migrators would need a
// per-row claim column instead.
type Progress struct {
	path  string
	state progressState
	seen  map[string]bool
}

// LoadProgress reads the resume file, starting fresh when it does not exist.
func LoadProgress(path string) (*Progress, error) {
	p := &Progress{path: path, seen: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read resume file: %w", err)
	}
	if err := json.Unmarshal(data, &p.state); err != nil {
		return nil, fmt.Errorf("parse resume file %s: %w", path, err)
	}
	for _, id := range p.state.MigratedIDs {
		p.seen[id] = true
	}
	return p, nil
}

// Contains reports whether the row was migrated by an earlier run.
func (p *Progress) Contains(publicID string) bool {
	return p.seen[publicID]
}

// MarkMigrated records one migrated row and flushes the file so a crash
// right after loses nothing.
func (p *Progress) MarkMigrated(publicID string) error {
	if p.seen[publicID] {
		return nil
	}
	p.seen[publicID] = true
	p.state.MigratedIDs = append(p.state.MigratedIDs, publicID)
	p.state.Stats.Migrated++
	return p.flush()
}

// MarkSkipped counts a row that needed no migration.
func (p *Progress) MarkSkipped() {
	p.state.Stats.Skipped++
}

// MarkFailed counts a row whose copy failed.
func (p *Progress) MarkFailed() {
	p.state.Stats.Failed++
}

// Stats returns the running counters.
func (p *Progress) Stats() ProgressStats {
	return p.state.Stats
}

func (p *Progress) flush() error {
	p.state.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(p.state, "", "  ")
	if err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write resume file: %w", err)
	}
	return os.Rename(tmp, p.path)
}
