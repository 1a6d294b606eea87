package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ljunwei/go-date-planner/internal/types"
)

// Catalog holds the in-memory POI snapshot the planning pipeline reads from.
// Load populates it exactly once; concurrent planners share the same
// immutable slice afterwards, so no per-request locking is needed.
type Catalog struct {
	logger *slog.Logger
	repo   Repository

	once    sync.Once
	loadErr error
	pois    []types.PointOfInterest
	byID    map[string]types.PointOfInterest
	ready   atomic.Bool
}

func NewCatalog(repo Repository, logger *slog.Logger) *Catalog {
	return &Catalog{
		logger: logger,
		repo:   repo,
	}
}

// Load reads the full catalog from the repository. It is safe to call from
// multiple goroutines; only the first call hits the database and later calls
// return its outcome. A failed load stays failed — the caller decides whether
// to exit or retry with a fresh Catalog.
func (c *Catalog) Load(ctx context.Context) error {
	c.once.Do(func() {
		ctx, span := otel.Tracer("Catalog").Start(ctx, "Load")
		defer span.End()

		pois, err := c.repo.ListPOIs(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Catalog load failed")
			c.loadErr = fmt.Errorf("loading catalog: %w", err)
			return
		}

		byID := make(map[string]types.PointOfInterest, len(pois))
		withEmbeddings := 0
		for _, poi := range pois {
			byID[poi.ID.String()] = poi
			if len(poi.Embedding) > 0 {
				withEmbeddings++
			}
		}

		c.pois = pois
		c.byID = byID
		c.ready.Store(true)

		span.SetAttributes(
			attribute.Int("catalog.size", len(pois)),
			attribute.Int("catalog.with_embeddings", withEmbeddings),
		)
		c.logger.InfoContext(ctx, "Catalog ready",
			slog.Int("pois", len(pois)),
			slog.Int("with_embeddings", withEmbeddings))
	})
	return c.loadErr
}

// Snapshot returns the loaded POI slice. Callers must treat it as read-only.
// Before a successful Load it fails fast with ErrCatalogNotReady.
func (c *Catalog) Snapshot() ([]types.PointOfInterest, error) {
	if !c.ready.Load() {
		return nil, types.ErrCatalogNotReady
	}
	return c.pois, nil
}

// Get looks up a single POI by id.
func (c *Catalog) Get(id string) (types.PointOfInterest, bool) {
	if !c.ready.Load() {
		return types.PointOfInterest{}, false
	}
	poi, ok := c.byID[id]
	return poi, ok
}

// Size reports the number of loaded POIs, zero before Load succeeds.
func (c *Catalog) Size() int {
	if !c.ready.Load() {
		return 0
	}
	return len(c.pois)
}
