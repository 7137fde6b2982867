package services

//go:generate mockgen -source=reconcile.go -destination=reconcile_mock.go -package=services

import (
	"context"
	"time"

	"github.com/sbilibin2017/gw-recipe-book/internal/blobstore"
	"github.com/sbilibin2017/gw-recipe-book/internal/logger"
	"github.com/sbilibin2017/gw-recipe-book/internal/models"
)

const reconcileBatch = 100

// RecipeScanner pages through live recipe rows.
type RecipeScanner interface {
	ListActiveBefore(ctx context.Context, cutoff time.Time, afterID int64, limit int) ([]models.RecipeDB, error)
}

// RecipeMarker soft-deletes rows regardless of their author.
type RecipeMarker interface {
	MarkDeleted(ctx context.Context, id int64) (bool, error)
}

// Reconciler soft-deletes live rows whose body blob is missing, which is what
// a create interrupted between inserting the row and writing the body leaves
// behind. Rows younger than the grace period are skipped so creates still in
// flight are not touched.
type Reconciler struct {
	scanner RecipeScanner
	marker  RecipeMarker
	blobs   BlobStore
	grace   time.Duration
	now     func() time.Time
}

// NewReconciler creates a new Reconciler.
func NewReconciler(scanner RecipeScanner, marker RecipeMarker, blobs BlobStore, grace time.Duration) *Reconciler {
	return &Reconciler{
		scanner: scanner,
		marker:  marker,
		blobs:   blobs,
		grace:   grace,
		now:     time.Now,
	}
}

// Run performs one reconciliation pass and returns the number of rows it
// soft-deleted.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.grace)
	var (
		afterID int64
		marked  int
	)

	for {
		rows, err := r.scanner.ListActiveBefore(ctx, cutoff, afterID, reconcileBatch)
		if err != nil {
			logger.Log.Errorw("failed to list recipes for reconciliation", "after_id", afterID, "error", err)
			return marked, err
		}

		for _, row := range rows {
			afterID = row.ID

			found, err := r.blobs.Exists(ctx, blobstore.BodyKey(row.ID))
			if err != nil {
				logger.Log.Warnw("failed to check recipe body", "id", row.ID, "error", err)
				continue
			}
			if found {
				continue
			}

			ok, err := r.marker.MarkDeleted(ctx, row.ID)
			if err != nil {
				logger.Log.Errorw("failed to mark orphaned recipe deleted", "id", row.ID, "error", err)
				return marked, err
			}
			if !ok {
				continue
			}
			marked++
			logger.Log.Warnw("recipe without body marked deleted", "id", row.ID, "author", row.Author)

			if row.ImageRef != nil {
				if err := r.blobs.Delete(ctx, *row.ImageRef); err != nil {
					logger.Log.Warnw("failed to delete orphaned blob", "key", *row.ImageRef, "error", err)
				}
			}
		}

		if len(rows) < reconcileBatch {
			break
		}
		if err := ctx.Err(); err != nil {
			return marked, err
		}
	}

	logger.Log.Infow("reconciliation finished", "marked", marked, "cutoff", cutoff)
	return marked, nil
}
