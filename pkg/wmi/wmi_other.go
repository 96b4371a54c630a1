//go:build !windows

package wmi

import (
	"context"

	herrors "github.com/lucid-vigil/winharden/pkg/errors"
)

type unsupportedClient struct{}

// NewClient returns the platform Client. Off Windows every call fails with
// ErrUnsupportedPlatform.
func NewClient() Client {
	return unsupportedClient{}
}

func (unsupportedClient) Query(ctx context.Context, namespace, query string) ([]Row, error) {
	return nil, herrors.NewPlatformError("wmi.Query")
}

func (unsupportedClient) ExecMethod(ctx context.Context, namespace, class, method string, params []Param) error {
	return herrors.NewPlatformError("wmi.ExecMethod")
}
