package services

//go:generate mockgen -source=recipe.go -destination=recipe_mock.go -package=services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-recipe-book/internal/blobstore"
	"github.com/sbilibin2017/gw-recipe-book/internal/logger"
	"github.com/sbilibin2017/gw-recipe-book/internal/models"
	"github.com/sbilibin2017/gw-recipe-book/internal/saga"
)

// Search limits applied when none are configured.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 255
)

// Authorizer resolves credentials and checks record ownership.
type Authorizer interface {
	Authorize(ctx context.Context, credential string) (int64, error)
	AuthorizeOwner(ctx context.Context, credential string, author int64) error
}

// AuthorReader looks up the account a recipe is created for.
type AuthorReader interface {
	GetByID(ctx context.Context, id int64) (*models.UserDB, error)
}

// RecipeReader defines read-only operations for recipe metadata.
type RecipeReader interface {
	GetByID(ctx context.Context, id int64) (*models.RecipeDB, error)
	Search(ctx context.Context, filter models.RecipeFilter) ([]models.RecipeDB, error)
}

// RecipeWriter defines write operations for recipe metadata.
type RecipeWriter interface {
	Insert(ctx context.Context, name string, description *string, author int64) (int64, time.Time, error)
	SetImageRef(ctx context.Context, id int64, imageRef string) error
	Update(ctx context.Context, id, author int64, name string, description, imageRef *string, editedAt time.Time) (bool, error)
	SoftDelete(ctx context.Context, id, author int64) (*string, bool, error)
	Purge(ctx context.Context, id int64) error
}

// BlobStore keeps recipe bodies and images.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// BodyCache caches encoded recipe bodies by recipe id.
type BodyCache interface {
	Get(ctx context.Context, id int64) ([]byte, error)
	Set(ctx context.Context, id int64, body []byte) error
	Delete(ctx context.Context, id int64) error
}

// RecipeOption configures a RecipeService.
type RecipeOption func(*RecipeService)

// WithBodyCache serves bodies through cache.
func WithBodyCache(cache BodyCache) RecipeOption {
	return func(s *RecipeService) {
		s.cache = cache
	}
}

// WithKafkaWriter publishes recipe events through w.
func WithKafkaWriter(w KafkaWriter) RecipeOption {
	return func(s *RecipeService) {
		s.kafkaWriter = w
	}
}

// WithSearchLimits sets the default and maximum search result counts.
func WithSearchLimits(defaultLimit, maxLimit int) RecipeOption {
	return func(s *RecipeService) {
		s.defaultLimit = defaultLimit
		s.maxLimit = maxLimit
	}
}

// WithClock overrides the time source used for edit timestamps.
func WithClock(now func() time.Time) RecipeOption {
	return func(s *RecipeService) {
		s.now = now
	}
}

// WithImageKeys overrides the generator of image blob tokens.
func WithImageKeys(next func() string) RecipeOption {
	return func(s *RecipeService) {
		s.nextImageToken = next
	}
}

// RecipeService persists recipes across the metadata store and the blob
// store. Multi-store writes run as sagas: each completed step pushes its
// compensation and a failure drains them in reverse order.
type RecipeService struct {
	gate    Authorizer
	authors AuthorReader
	reader  RecipeReader
	writer  RecipeWriter
	blobs   BlobStore

	cache       BodyCache
	kafkaWriter KafkaWriter

	defaultLimit   int
	maxLimit       int
	now            func() time.Time
	nextImageToken func() string
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(
	gate Authorizer,
	authors AuthorReader,
	reader RecipeReader,
	writer RecipeWriter,
	blobs BlobStore,
	opts ...RecipeOption,
) *RecipeService {
	s := &RecipeService{
		gate:           gate,
		authors:        authors,
		reader:         reader,
		writer:         writer,
		blobs:          blobs,
		defaultLimit:   DefaultSearchLimit,
		maxLimit:       MaxSearchLimit,
		now:            time.Now,
		nextImageToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storageFailure classifies err as ErrStorageFailure, and additionally as
// ErrMalformed when stored data failed to decode.
func storageFailure(err error) error {
	if errors.Is(err, models.ErrMalformedRow) || errors.Is(err, models.ErrMalformedBody) {
		return fmt.Errorf("%w: %w: %w", ErrStorageFailure, ErrMalformed, err)
	}
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}

func encodeInput(input models.RecipeInput) ([]byte, error) {
	if err := models.Validate(input.Meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	if err := models.Validate(input.Recipe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	body, err := models.EncodeBody(input.Recipe)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	return body, nil
}

// Create stores a new recipe owned by the credential's subject. image may be
// nil. On failure every completed write is undone and ErrStorageFailure is
// returned, so no reader ever observes the id.
func (s *RecipeService) Create(ctx context.Context, credential string, input models.RecipeInput, image []byte) (*models.Recipe, error) {
	subject, err := s.gate.Authorize(ctx, credential)
	if err != nil {
		return nil, err
	}

	body, err := encodeInput(input)
	if err != nil {
		return nil, err
	}

	// Compensations must run even if the caller goes away mid-saga.
	ctx = context.WithoutCancel(ctx)

	author, err := s.authors.GetByID(ctx, subject)
	if err != nil {
		logger.Log.Errorw("failed to get author", "author", subject, "error", err)
		return nil, storageFailure(err)
	}
	if author == nil || author.Deleted {
		logger.Log.Infow("recipe author does not exist", "author", subject)
		return nil, ErrNoSuchUser
	}

	id, createdAt, err := s.writer.Insert(ctx, input.Meta.Name, input.Meta.Description, subject)
	if err != nil {
		logger.Log.Errorw("failed to insert recipe", "author", subject, "error", err)
		return nil, storageFailure(err)
	}

	sg := saga.New("create recipe")
	sg.Push("insert row", func(ctx context.Context) error {
		return s.writer.Purge(ctx, id)
	})

	fail := func(step string, err error) (*models.Recipe, error) {
		logger.Log.Errorw("failed to create recipe", "id", id, "step", step, "error", err)
		sg.Rollback(ctx)
		return nil, storageFailure(err)
	}

	bodyKey := blobstore.BodyKey(id)
	if err := s.blobs.Write(ctx, bodyKey, body); err != nil {
		return fail("write body", err)
	}
	sg.Push("write body", func(ctx context.Context) error {
		return s.blobs.Delete(ctx, bodyKey)
	})

	var imageRef *string
	if image != nil {
		imageKey := blobstore.ImageKey(s.nextImageToken())
		if err := s.blobs.Write(ctx, imageKey, image); err != nil {
			return fail("write image", err)
		}
		sg.Push("write image", func(ctx context.Context) error {
			return s.blobs.Delete(ctx, imageKey)
		})

		if err := s.writer.SetImageRef(ctx, id, imageKey); err != nil {
			return fail("set image ref", err)
		}
		imageRef = &imageKey
	}
	sg.Forget()

	publishEvent(ctx, s.kafkaWriter, newRecipeEvent(models.OperationCreated, id, subject))

	row := &models.RecipeDB{
		ID:          id,
		Name:        input.Meta.Name,
		Description: input.Meta.Description,
		Author:      subject,
		AuthorName:  author.Name,
		ImageRef:    imageRef,
		CreatedAt:   createdAt,
	}
	return models.NewRecipe(row, input.Recipe), nil
}

// Read returns the non-deleted recipe id. A missing or corrupt body of an
// existing row is reported as ErrStorageFailure rather than hidden.
func (s *RecipeService) Read(ctx context.Context, id int64) (*models.Recipe, error) {
	row, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get recipe", "id", id, "error", err)
		return nil, storageFailure(err)
	}
	if row == nil || row.Deleted {
		return nil, ErrNotFound
	}

	body, err := s.loadBody(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.NewRecipe(row, body), nil
}

// ReadImage returns the image attached to the non-deleted recipe id.
func (s *RecipeService) ReadImage(ctx context.Context, id int64) ([]byte, error) {
	row, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get recipe", "id", id, "error", err)
		return nil, storageFailure(err)
	}
	if row == nil || row.Deleted || row.ImageRef == nil {
		return nil, ErrNotFound
	}

	data, err := s.blobs.Read(ctx, *row.ImageRef)
	if err != nil {
		logger.Log.Errorw("failed to read recipe image", "id", id, "key", *row.ImageRef, "error", err)
		return nil, storageFailure(err)
	}
	return data, nil
}

// Search returns the non-deleted recipes matching filter, ordered by id.
// An empty filter matches every recipe. A zero limit selects the default;
// a limit above the maximum is rejected before any query runs. The search
// fails as a whole if any matched body cannot be loaded.
func (s *RecipeService) Search(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, error) {
	switch {
	case filter.Limit < 0:
		return nil, fmt.Errorf("%w: negative limit", ErrInvalidFilter)
	case filter.Limit > s.maxLimit:
		return nil, fmt.Errorf("%w: %d > %d", ErrLimitExceeded, filter.Limit, s.maxLimit)
	case filter.Page < 0 || filter.Page > math.MaxInt32:
		return nil, fmt.Errorf("%w: page %d", ErrInvalidFilter, filter.Page)
	}
	if filter.Limit == 0 {
		filter.Limit = s.defaultLimit
	}

	rows, err := s.reader.Search(ctx, filter)
	if err != nil {
		logger.Log.Errorw("failed to search recipes", "error", err)
		return nil, storageFailure(err)
	}

	recipes := make([]models.Recipe, 0, len(rows))
	for i := range rows {
		body, err := s.loadBody(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *models.NewRecipe(&rows[i], body))
	}
	return recipes, nil
}

// Delete soft-deletes recipe id if the credential's subject owns it. The flag
// flip is a single conditional statement; blobs are then removed best-effort.
// A recipe owned by someone else yields ErrForbidden, anything already gone
// yields ErrNotFound.
func (s *RecipeService) Delete(ctx context.Context, credential string, id int64) error {
	subject, err := s.gate.Authorize(ctx, credential)
	if err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)

	imageRef, ok, err := s.writer.SoftDelete(ctx, id, subject)
	if err != nil {
		logger.Log.Errorw("failed to delete recipe", "id", id, "error", err)
		return storageFailure(err)
	}
	if !ok {
		return s.classifyMiss(ctx, credential, id)
	}

	s.evictBody(ctx, id)
	s.discardBlob(ctx, blobstore.BodyKey(id))
	if imageRef != nil {
		s.discardBlob(ctx, *imageRef)
	}

	publishEvent(ctx, s.kafkaWriter, newRecipeEvent(models.OperationDeleted, id, subject))
	return nil
}

// classifyMiss explains why a conditional write matched no row.
func (s *RecipeService) classifyMiss(ctx context.Context, credential string, id int64) error {
	row, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get recipe", "id", id, "error", err)
		return storageFailure(err)
	}
	if row == nil || row.Deleted {
		return ErrNotFound
	}
	if err := s.gate.AuthorizeOwner(ctx, credential, row.Author); err != nil {
		return err
	}
	// Lost a race with a concurrent writer of the same row.
	return ErrNotFound
}

// Update replaces the metadata and body of recipe id, and its image when one
// is supplied. The row is fetched and its owner checked before anything is
// written. The body is written after the metadata; if that write fails the
// metadata already carries the new edit and retrying the same update repairs
// the body.
func (s *RecipeService) Update(ctx context.Context, credential string, id int64, input models.RecipeInput, image []byte) (*models.Recipe, error) {
	subject, err := s.gate.Authorize(ctx, credential)
	if err != nil {
		return nil, err
	}

	body, err := encodeInput(input)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)

	row, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get recipe", "id", id, "error", err)
		return nil, storageFailure(err)
	}
	if row == nil || row.Deleted {
		return nil, ErrNotFound
	}
	if err := s.gate.AuthorizeOwner(ctx, credential, row.Author); err != nil {
		return nil, err
	}

	sg := saga.New("update recipe")
	imageRef := row.ImageRef
	if image != nil {
		imageKey := blobstore.ImageKey(s.nextImageToken())
		if err := s.blobs.Write(ctx, imageKey, image); err != nil {
			logger.Log.Errorw("failed to write recipe image", "id", id, "error", err)
			return nil, storageFailure(err)
		}
		sg.Push("write image", func(ctx context.Context) error {
			return s.blobs.Delete(ctx, imageKey)
		})
		imageRef = &imageKey
	}

	editedAt := s.now().UTC()
	ok, err := s.writer.Update(ctx, id, subject, input.Meta.Name, input.Meta.Description, imageRef, editedAt)
	if err != nil {
		logger.Log.Errorw("failed to update recipe", "id", id, "error", err)
		sg.Rollback(ctx)
		return nil, storageFailure(err)
	}
	if !ok {
		sg.Rollback(ctx)
		return nil, ErrNotFound
	}
	sg.Forget()

	if err := s.blobs.Write(ctx, blobstore.BodyKey(id), body); err != nil {
		logger.Log.Errorw("recipe metadata updated but body write failed", "id", id, "error", err)
		return nil, storageFailure(err)
	}
	s.evictBody(ctx, id)

	if image != nil && row.ImageRef != nil {
		s.discardBlob(ctx, *row.ImageRef)
	}

	publishEvent(ctx, s.kafkaWriter, newRecipeEvent(models.OperationUpdated, id, subject))

	updated := *row
	updated.Name = input.Meta.Name
	updated.Description = input.Meta.Description
	updated.ImageRef = imageRef
	updated.EditedAt = &editedAt
	return models.NewRecipe(&updated, input.Recipe), nil
}

// loadBody returns the decoded body of recipe id, consulting the cache first.
func (s *RecipeService) loadBody(ctx context.Context, id int64) (models.RecipeBody, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, id)
		if err != nil {
			logger.Log.Warnw("failed to get cached recipe body", "id", id, "error", err)
		}
		if data != nil {
			body, err := models.DecodeBody(data)
			if err == nil {
				return body, nil
			}
			logger.Log.Warnw("discarding corrupt cached recipe body", "id", id, "error", err)
			s.evictBody(ctx, id)
		}
	}

	data, err := s.blobs.Read(ctx, blobstore.BodyKey(id))
	if errors.Is(err, blobstore.ErrNotFound) {
		logger.Log.Errorw("recipe row has no body", "id", id)
		return models.RecipeBody{}, storageFailure(fmt.Errorf("recipe %d: %w", id, err))
	}
	if err != nil {
		logger.Log.Errorw("failed to read recipe body", "id", id, "error", err)
		return models.RecipeBody{}, storageFailure(err)
	}

	body, err := models.DecodeBody(data)
	if err != nil {
		logger.Log.Errorw("failed to decode recipe body", "id", id, "error", err)
		return models.RecipeBody{}, storageFailure(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, id, data); err != nil {
			logger.Log.Warnw("failed to cache recipe body", "id", id, "error", err)
		}
	}
	return body, nil
}

func (s *RecipeService) evictBody(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		logger.Log.Warnw("failed to evict cached recipe body", "id", id, "error", err)
	}
}

// discardBlob removes a blob that no live row references any more.
func (s *RecipeService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		logger.Log.Warnw("failed to delete orphaned blob", "key", key, "error", err)
	}
}
