// Package universe manages the ticker lists the pipeline operates on:
// file-backed named lists plus an index-constituent scraper to refresh
// them.
package universe

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Service reads and writes named universe files. Each universe is a
// plain text file under the universe directory, one ticker per line,
// with # comments.
type Service struct {
	dir string
	log zerolog.Logger
}

// NewService creates a universe service rooted at dir
func NewService(dir string, log zerolog.Logger) *Service {
	return &Service{
		dir: dir,
		log: log.With().Str("module", "universe").Logger(),
	}
}

// Names lists the available universes
func (s *Service) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".txt"))
	}
	sort.Strings(names)
	return names, nil
}

// List returns the tickers of one universe, deduplicated and uppercased
func (s *Service) List(name string) ([]string, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open universe %q: %w", name, err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var tickers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ticker := strings.ToUpper(line)
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		tickers = append(tickers, ticker)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read universe %q: %w", name, err)
	}

	return tickers, nil
}

// Resolve unions the tickers of several universes, preserving first-seen
// order
func (s *Service) Resolve(names []string) ([]string, error) {
	seen := make(map[string]struct{})
	var tickers []string
	for _, name := range names {
		list, err := s.List(name)
		if err != nil {
			return nil, err
		}
		for _, ticker := range list {
			if _, ok := seen[ticker]; ok {
				continue
			}
			seen[ticker] = struct{}{}
			tickers = append(tickers, ticker)
		}
	}
	return tickers, nil
}

// Save writes a universe file, replacing any previous contents
func (s *Service) Save(name string, tickers []string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create universe dir: %w", err)
	}

	var b strings.Builder
	for _, ticker := range tickers {
		b.WriteString(strings.ToUpper(strings.TrimSpace(ticker)))
		b.WriteByte('\n')
	}

	if err := os.WriteFile(s.path(name), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write universe %q: %w", name, err)
	}

	s.log.Info().Str("universe", name).Int("tickers", len(tickers)).Msg("Universe saved")
	return nil
}

func (s *Service) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}
