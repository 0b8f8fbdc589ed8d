package session

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FileRegistry is a Registry backed by a line-oriented file: one decimal chat
// id per line. The whole file is loaded at startup and rewritten in full on
// every registration, matching the format shared with existing tooling.
type FileRegistry struct {
	mu      sync.Mutex
	path    string
	chatIDs map[int64]struct{}
}

// NewFileRegistry loads the registry file at path. A missing file is treated
// as an empty registry; it is created on first registration.
func NewFileRegistry(path string) (*FileRegistry, error) {
	r := &FileRegistry{
		path:    path,
		chatIDs: make(map[int64]struct{}),
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to open registry file %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed registry line %q: %w", line, err)
		}
		r.chatIDs[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}
	return r, nil
}

// Register adds the chat id and rewrites the file in full.
func (r *FileRegistry) Register(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chatIDs[chatID]; ok {
		return nil
	}
	r.chatIDs[chatID] = struct{}{}

	var b strings.Builder
	for _, id := range r.sortedLocked() {
		fmt.Fprintf(&b, "%d\n", id)
	}
	if err := os.WriteFile(r.path, []byte(b.String()), 0o644); err != nil {
		// Keep the in-memory set consistent with the file on failure.
		delete(r.chatIDs, chatID)
		return fmt.Errorf("failed to write registry file %s: %w", r.path, err)
	}
	return nil
}

// List returns every registered chat id in ascending order.
func (r *FileRegistry) List(_ context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked(), nil
}

func (r *FileRegistry) sortedLocked() []int64 {
	ids := make([]int64, 0, len(r.chatIDs))
	for id := range r.chatIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
