package procedures

import (
	"context"
	"errors"
	"testing"

	"github.com/lucid-vigil/winharden/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProcedure is a mock implementation of the Procedure interface.
type MockProcedure struct {
	mock.Mock
	name     string
	category Category
}

func (m *MockProcedure) Name() string        { return m.name }
func (m *MockProcedure) Category() Category  { return m.category }
func (m *MockProcedure) Description() string { return "mock " + m.name }

func (m *MockProcedure) Apply(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newMock(name string, category Category) *MockProcedure {
	return &MockProcedure{name: name, category: category}
}

func TestDispatcher_ExecuteAllContinuesAfterFailure(t *testing.T) {
	_, logger := testutil.NewLogCapture()
	d := NewDispatcher(false, logger)

	first := newMock("first", CategoryFirewall)
	first.On("Apply", mock.Anything).Return(errors.New("New-NetFirewallRule failed")).Once()
	second := newMock("second", CategoryLockScreen)
	second.On("Apply", mock.Anything).Return(nil).Once()
	d.Register(first)
	d.Register(second)

	results := d.ExecuteAll(context.Background(), []string{"first", "missing", "second"})
	require.Len(t, results, 3)

	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "New-NetFirewallRule failed")
	assert.Equal(t, CategoryFirewall, results[0].Category)

	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Contains(t, results[1].Error, "'missing' not found")

	assert.Equal(t, StatusApplied, results[2].Status)
	assert.Equal(t, 2, Failed(results))

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestDispatcher_DryRun(t *testing.T) {
	logs, logger := testutil.NewLogCapture()
	d := NewDispatcher(true, logger)

	p := newMock("lockscreen_ctrl_alt_del", CategoryLockScreen)
	d.Register(p)

	res := d.Execute(context.Background(), "lockscreen_ctrl_alt_del")
	assert.Equal(t, StatusSkipped, res.Status)
	p.AssertNotCalled(t, "Apply", mock.Anything)

	var found bool
	for _, e := range logs.Level("info") {
		if e.Message == "Dry run, skipping procedure" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDispatcher_CancelledContext(t *testing.T) {
	_, logger := testutil.NewLogCapture()
	d := NewDispatcher(false, logger)
	p := newMock("first", CategoryDefender)
	d.Register(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := d.ExecuteAll(ctx, []string{"first"})
	assert.Equal(t, StatusSkipped, results[0].Status)
	p.AssertNotCalled(t, "Apply", mock.Anything)
}

func TestDispatcher_ProceduresSorted(t *testing.T) {
	_, logger := testutil.NewLogCapture()
	d := NewDispatcher(false, logger)
	d.Register(newMock("lockscreen_ctrl_alt_del", CategoryLockScreen))
	d.Register(newMock("defender_preferences", CategoryDefender))
	d.Register(newMock("country_ip_blocking", CategoryFirewall))

	var names []string
	for _, p := range d.Procedures() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"country_ip_blocking", "lockscreen_ctrl_alt_del", "defender_preferences"}, names)
}
