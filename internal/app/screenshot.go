package app

import (
	"context"
	"os"

	"devbridge/internal/bridge"
)

// CaptureScreenshot takes a screenshot through b and returns the PNG bytes.
func CaptureScreenshot(ctx context.Context, b *bridge.Bridge, deviceID string) ([]byte, error) {
	f, err := os.CreateTemp("", "devbridge-screenshot-*.png")
	if err != nil {
		return nil, err
	}
	p := f.Name()
	_ = f.Close()
	defer os.Remove(p)

	if err := b.Screenshot(ctx, deviceID, p); err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}
