// Package prompt persists the agent's system prompt as a small JSON file,
// editable at runtime through the HTTP API.
package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultPrompt is served until an operator saves a custom prompt, and
// whenever the saved file is missing or unreadable.
const DefaultPrompt = "You are a helpful voice AI assistant."

type promptFile struct {
	SystemPrompt string `json:"system_prompt"`
}

// Store reads and writes the prompt file. Reads never fail; anything wrong
// with the file degrades to DefaultPrompt.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return DefaultPrompt
	}
	var f promptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return DefaultPrompt
	}
	if f.SystemPrompt == "" {
		return DefaultPrompt
	}
	return f.SystemPrompt
}

func (s *Store) Set(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create prompt directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(promptFile{SystemPrompt: text}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write prompt file: %w", err)
	}
	return nil
}
