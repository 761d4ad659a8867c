package ports

import (
	"context"

	"pacbayes/domain/connectivity"
	"pacbayes/domain/core"
)

// RunRepository persists analysis run manifests for downstream consumers.
type RunRepository interface {
	Save(ctx context.Context, manifest *connectivity.RunManifest) error
	Get(ctx context.Context, id core.RunID) (*connectivity.RunManifest, error)
	List(ctx context.Context, limit int) ([]*connectivity.RunManifest, error)
}
