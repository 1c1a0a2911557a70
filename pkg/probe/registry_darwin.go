//go:build darwin

package probe

import (
	"bytes"
	"context"
	"time"
)

type lsappinfoSource struct {
	run runner
}

func (s lsappinfoSource) Apps(ctx context.Context) ([]App, error) {
	out, err := s.run(ctx, "lsappinfo", "list")
	if err != nil {
		return nil, err
	}
	return parseLSAppInfo(bytes.NewReader(out), time.Local)
}

// DefaultAppSource returns the platform's application registry, backed by
// lsappinfo on macOS.
func DefaultAppSource() AppSource { return lsappinfoSource{run: execOutput} }
