// Package hostinfo describes the machine being hardened.
package hostinfo

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/host"
)

// Info is a summary of the host.
type Info struct {
	Hostname        string `json:"hostname" yaml:"hostname"`
	Platform        string `json:"platform" yaml:"platform"`
	PlatformVersion string `json:"platform_version" yaml:"platform_version"`
	KernelVersion   string `json:"kernel_version" yaml:"kernel_version"`
	Caption         string `json:"caption,omitempty" yaml:"caption,omitempty"`
	BuildNumber     string `json:"build_number,omitempty" yaml:"build_number,omitempty"`
	Admin           bool   `json:"admin" yaml:"admin"`
}

// hostInfo is a variable so tests can stub gopsutil.
var hostInfo = host.InfoWithContext

// Collect gathers host facts. OS caption and build number are only filled in
// on Windows.
func Collect(ctx context.Context) (*Info, error) {
	hi, err := hostInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get host info: %w", err)
	}

	info := &Info{
		Hostname:        hi.Hostname,
		Platform:        hi.Platform,
		PlatformVersion: hi.PlatformVersion,
		KernelVersion:   hi.KernelVersion,
		Admin:           IsAdmin(),
	}
	if err := fillOS(info); err != nil {
		return info, err
	}
	return info, nil
}
