package autonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Queue is the JSON-backed priority queue of pending intents, persisted
// one-file-per-queue rather than one-file-per-intent.
type Queue struct {
	path string
	mu   sync.Mutex
}

// NewQueue returns a Queue backed by path. The file is created lazily on
// first Enqueue.
func NewQueue(path string) *Queue {
	return &Queue{path: path}
}

// Load returns every intent currently in the queue, in priority order.
func (q *Queue) Load() ([]Intent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadLocked()
}

func (q *Queue) loadLocked() ([]Intent, error) {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading intent queue %s: %w", q.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var intents []Intent
	if err := json.Unmarshal(data, &intents); err != nil {
		return nil, fmt.Errorf("parsing intent queue %s: %w", q.path, err)
	}
	return intents, nil
}

func (q *Queue) saveLocked(intents []Intent) error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("creating intent queue directory: %w", err)
	}
	data, err := json.MarshalIndent(intents, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling intent queue: %w", err)
	}
	return os.WriteFile(q.path, data, 0o644)
}

// Enqueue appends intent, filling in id/priority/status defaults, and
// re-sorts the queue descending by priority (ties keep insertion order).
func (q *Queue) Enqueue(intent Intent) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	intents, err := q.loadLocked()
	if err != nil {
		return err
	}

	if intent.ID == "" {
		intent.ID = fmt.Sprintf("intent_%d", len(intents)+1)
	}
	if intent.Priority == 0 {
		intent.Priority = 1
	}
	if intent.Status == "" {
		intent.Status = StatusPending
	}

	intents = append(intents, intent)
	sort.SliceStable(intents, func(i, j int) bool {
		return intents[i].Priority > intents[j].Priority
	})

	return q.saveLocked(intents)
}

// Dequeue returns the highest-priority pending intent, marking it
// "processing" and persisting that change before returning. It returns
// false if no intent is pending.
func (q *Queue) Dequeue() (Intent, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	intents, err := q.loadLocked()
	if err != nil {
		return Intent{}, false, err
	}
	for i := range intents {
		if intents[i].Status == StatusPending {
			intents[i].Status = StatusProcessing
			if err := q.saveLocked(intents); err != nil {
				return Intent{}, false, err
			}
			return intents[i], true, nil
		}
	}
	return Intent{}, false, nil
}

// SetStatus updates the status of the intent with the given id.
func (q *Queue) SetStatus(id, status string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	intents, err := q.loadLocked()
	if err != nil {
		return err
	}
	for i := range intents {
		if intents[i].ID == id {
			intents[i].Status = status
			return q.saveLocked(intents)
		}
	}
	return fmt.Errorf("intent %s not found in queue", id)
}
