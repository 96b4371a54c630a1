// Package testutil provides mocks and log capture shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/lucid-vigil/winharden/pkg/wmi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

// MockWMIClient is a testify mock of wmi.Client.
type MockWMIClient struct {
	mock.Mock
}

func (m *MockWMIClient) Query(ctx context.Context, namespace, query string) ([]wmi.Row, error) {
	args := m.Called(ctx, namespace, query)
	rows, _ := args.Get(0).([]wmi.Row)
	return rows, args.Error(1)
}

func (m *MockWMIClient) ExecMethod(ctx context.Context, namespace, class, method string, params []wmi.Param) error {
	args := m.Called(ctx, namespace, class, method, params)
	return args.Error(0)
}

// MockRunner is a testify mock of shell.Runner. Expectations are set on
// Run(ctx, name, args) with args as a []string.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ret := m.Called(ctx, name, args)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// LogEntry is one decoded log line.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// LogCapture collects JSON log output for assertions.
type LogCapture struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

// NewLogCapture returns a capture and a debug-level logger writing into it.
func NewLogCapture() (*LogCapture, zerolog.Logger) {
	lc := &LogCapture{}
	return lc, zerolog.New(lc).Level(zerolog.DebugLevel)
}

func (lc *LogCapture) Write(p []byte) (int, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.buf.Write(p)
}

// Entries decodes every captured line.
func (lc *LogCapture) Entries() []LogEntry {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	var entries []LogEntry
	for _, line := range strings.Split(lc.buf.String(), "\n") {
		if line == "" {
			continue
		}
		fields := map[string]interface{}{}
		if err := json.Unmarshal([]byte(line), &fields); err != nil {
			continue
		}
		e := LogEntry{Fields: fields}
		e.Level, _ = fields["level"].(string)
		e.Message, _ = fields["message"].(string)
		delete(fields, "level")
		delete(fields, "message")
		entries = append(entries, e)
	}
	return entries
}

// Level returns the entries logged at level.
func (lc *LogCapture) Level(level string) []LogEntry {
	var out []LogEntry
	for _, e := range lc.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards everything captured so far.
func (lc *LogCapture) Reset() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.buf.Reset()
}
