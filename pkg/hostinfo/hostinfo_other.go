//go:build !windows

package hostinfo

func fillOS(*Info) error { return nil }

// IsAdmin is always false off Windows.
func IsAdmin() bool { return false }
