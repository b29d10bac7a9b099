package log

import (
	"fmt"
	"regexp"
	"sync"
)

// NewMock creates a mocked logger that stores all logged messages in a
// buffer for inspection by test functions.
func NewMock() *Mock {
	return &Mock{impl{&mockWriter{}}}
}

// Mock is a logger that stores all messages for later retrieval,
// instead of writing them anywhere.
type Mock struct {
	impl
}

type mockWriter struct {
	mu     sync.Mutex
	logged []string
}

func (w *mockWriter) logAtLevel(l level, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logged = append(w.logged, fmt.Sprintf("%s: %s", levelName[l], msg))
}

// GetAll returns all messages logged since instantiation or the last
// call to Clear(). Each message is prefixed with its severity name,
// e.g. "INFO: [AUDIT] Issuance success ...".
func (m *Mock) GetAll() []string {
	w := m.w.(*mockWriter)
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.logged))
	copy(out, w.logged)
	return out
}

// GetAllMatching returns all messages logged since instantiation or
// the last Clear() whose text matches the given regexp.
func (m *Mock) GetAllMatching(reString string) []string {
	re := regexp.MustCompile(reString)
	var matches []string
	for _, logMsg := range m.GetAll() {
		if re.MatchString(logMsg) {
			matches = append(matches, logMsg)
		}
	}
	return matches
}

// Clear discards all stored messages.
func (m *Mock) Clear() {
	w := m.w.(*mockWriter)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logged = nil
}
