package ports

import (
	"context"

	"launchdash/domain/launch"
)

// LaunchSource loads the launch records table once at startup.
// A failed load is fatal to the caller.
type LaunchSource interface {
	Load(ctx context.Context) (*launch.Dataset, error)
}
