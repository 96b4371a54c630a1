package hostinfo

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("queries Win32_OperatingSystem")
	}
	defer func() { hostInfo = host.InfoWithContext }()

	hostInfo = func(ctx context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{
			Hostname:        "ws-042",
			Platform:        "Microsoft Windows 11 Pro",
			PlatformVersion: "10.0.22631 Build 22631",
			KernelVersion:   "10.0.22631",
		}, nil
	}

	info, err := Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ws-042", info.Hostname)
	assert.Equal(t, "10.0.22631", info.KernelVersion)
	assert.False(t, info.Admin)
	assert.Empty(t, info.BuildNumber)
}

func TestCollect_Error(t *testing.T) {
	defer func() { hostInfo = host.InfoWithContext }()

	hostInfo = func(ctx context.Context) (*host.InfoStat, error) {
		return nil, errors.New("boom")
	}

	_, err := Collect(context.Background())
	assert.ErrorContains(t, err, "failed to get host info")
}
