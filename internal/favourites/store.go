package favourites

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned by List when the backing file does not exist.
// Callers treat this as an empty list, not a failure.
var ErrNotFound = errors.New("favourites file not found")

// Stock is one favourite entry. Identity is the ticker.
type Stock struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// Store persists favourite stocks in a flat text file, one `name,ticker`
// record per line, in insertion order.
//
// Each operation is a whole-file read or rewrite serialized by a mutex.
// Cross-operation atomicity (check-then-add) is not provided; duplicate
// prevention is the caller's responsibility.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns all favourites in file order. Returns ErrNotFound when the
// file is absent. Lines without a comma are skipped.
func (s *Store) List() ([]Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read favourites: %w", err)
	}

	var stocks []Stock
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		name, ticker, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		stocks = append(stocks, Stock{Name: name, Ticker: ticker})
	}

	return stocks, nil
}

// Add appends one favourite to the file, creating it if absent.
func (s *Store) Add(name, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create favourites dir: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open favourites: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s,%s\n", name, ticker); err != nil {
		return fmt.Errorf("append favourite: %w", err)
	}

	return nil
}

// Remove rewrites the file, dropping every line whose ticker field matches.
// Removing an absent ticker is a no-op. Remaining lines keep their order.
func (s *Store) Remove(ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read favourites: %w", err)
	}

	var kept []string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		_, t, ok := strings.Cut(strings.TrimRight(line, "\r"), ",")
		if ok && t == ticker {
			continue
		}
		kept = append(kept, line)
	}

	out := strings.Join(kept, "\n")
	if out != "" {
		out += "\n"
	}

	if err := os.WriteFile(s.path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("rewrite favourites: %w", err)
	}

	return nil
}
