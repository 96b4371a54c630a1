package lockscreen

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/lucid-vigil/winharden/pkg/lgpo"
	"github.com/lucid-vigil/winharden/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, path string, ft lgpo.FileType) error {
	return m.Called(ctx, path, ft).Error(0)
}

func TestApply(t *testing.T) {
	resources := filepath.Join("opt", "hardening")
	want := filepath.Join(resources, "Security-Baselines-X", "Lock Screen Policies", "Enable CTRL + ALT + DEL", "GptTmpl.inf")

	r := new(mockRunner)
	r.On("Run", mock.Anything, want, lgpo.INF).Return(nil).Once()

	logs, logger := testutil.NewLogCapture()
	require.NoError(t, New(r, resources, logger).Apply(context.Background()))
	r.AssertExpectations(t)

	infos := logs.Level("info")
	require.Len(t, infos, 1)
	assert.Equal(t, "Applying the Enable CTRL + ALT + DEL policy", infos[0].Message)
}

func TestApply_RunnerError(t *testing.T) {
	r := new(mockRunner)
	r.On("Run", mock.Anything, mock.Anything, lgpo.INF).Return(errors.New("LGPO.exe failed"))

	_, logger := testutil.NewLogCapture()
	err := New(r, "res", logger).Apply(context.Background())
	assert.EqualError(t, err, "LGPO.exe failed")
}

func TestApply_NoResources(t *testing.T) {
	r := new(mockRunner)
	_, logger := testutil.NewLogCapture()

	err := New(r, "", logger).Apply(context.Background())
	assert.ErrorIs(t, err, herrors.ErrInvalidArgument)
	r.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}
