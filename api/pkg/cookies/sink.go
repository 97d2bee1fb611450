package cookies

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/types"
)

// Sink persists the session's cookies as an ordered JSON array.
type Sink struct {
	path string
}

func NewSink(path string) *Sink {
	return &Sink{path: path}
}

func (s *Sink) Path() string {
	return s.path
}

// Write replaces the file at the sink's path. The record order is kept.
func (s *Sink) Write(records []types.CookieRecord) error {
	if records == nil {
		records = []types.CookieRecord{}
	}
	bts, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// cookies are credentials
	if err := os.WriteFile(s.path, bts, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}

	log.Info().Str("path", s.path).Int("count", len(records)).Msg("cookies saved")
	return nil
}

func (s *Sink) Read() ([]types.CookieRecord, error) {
	bts, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	var records []types.CookieRecord
	if err := json.Unmarshal(bts, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return records, nil
}
