//go:build windows

package hostinfo

import (
	"fmt"

	"github.com/yusufpapurcu/wmi"
	"golang.org/x/sys/windows"
)

type win32OperatingSystem struct {
	Caption     string
	BuildNumber string
}

func fillOS(info *Info) error {
	var systems []win32OperatingSystem
	if err := wmi.Query("SELECT Caption, BuildNumber FROM Win32_OperatingSystem", &systems); err != nil {
		return fmt.Errorf("query Win32_OperatingSystem: %w", err)
	}
	if len(systems) > 0 {
		info.Caption = systems[0].Caption
		info.BuildNumber = systems[0].BuildNumber
	}
	return nil
}

// IsAdmin reports whether the process token is a member of the built-in
// Administrators group.
func IsAdmin() bool {
	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := windows.Token(0).IsMember(sid)
	if err != nil {
		return false
	}
	return member
}
