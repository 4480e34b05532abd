package sheets

import (
	"context"
	"sync"
)

// MemoryLog is an in-process round log with the same contract as Client.
// It backs tests and credential-less local development.
type MemoryLog struct {
	mu   sync.Mutex
	rows []Row

	ExistsCalls int
	AppendCalls int

	// FailAppend makes every Append return this error, for simulating an
	// unreachable store.
	FailAppend error
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (m *MemoryLog) Exists(ctx context.Context, roundID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExistsCalls++
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, r := range m.rows {
		if r.RoundID == roundID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryLog) Append(ctx context.Context, row Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailAppend != nil {
		return m.FailAppend
	}
	m.rows = append(m.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (m *MemoryLog) Rows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, len(m.rows))
	copy(out, m.rows)
	return out
}
