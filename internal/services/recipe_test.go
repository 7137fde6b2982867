package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/sbilibin2017/gw-recipe-book/internal/blobstore"
	"github.com/sbilibin2017/gw-recipe-book/internal/gate"
	"github.com/sbilibin2017/gw-recipe-book/internal/models"
	"github.com/sbilibin2017/gw-recipe-book/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const credential = "Bearer token"

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

type recipeMocks struct {
	gate    *services.MockAuthorizer
	authors *services.MockAuthorReader
	reader  *services.MockRecipeReader
	writer  *services.MockRecipeWriter
	blobs   *services.MockBlobStore
	cache   *services.MockBodyCache
	kafka   *services.MockKafkaWriter
}

func newRecipeService(t *testing.T, withCache bool) (*services.RecipeService, recipeMocks) {
	ctrl := gomock.NewController(t)
	m := recipeMocks{
		gate:    services.NewMockAuthorizer(ctrl),
		authors: services.NewMockAuthorReader(ctrl),
		reader:  services.NewMockRecipeReader(ctrl),
		writer:  services.NewMockRecipeWriter(ctrl),
		blobs:   services.NewMockBlobStore(ctrl),
		cache:   services.NewMockBodyCache(ctrl),
		kafka:   services.NewMockKafkaWriter(ctrl),
	}

	opts := []services.RecipeOption{
		services.WithKafkaWriter(m.kafka),
		services.WithClock(func() time.Time { return fixedNow }),
		services.WithImageKeys(func() string { return "tok" }),
	}
	if withCache {
		opts = append(opts, services.WithBodyCache(m.cache))
	}

	svc := services.NewRecipeService(m.gate, m.authors, m.reader, m.writer, m.blobs, opts...)
	return svc, m
}

func soupInput() models.RecipeInput {
	return models.RecipeInput{
		Meta: models.RecipeMeta{Name: "Soup"},
		Recipe: models.RecipeBody{
			PreparationTime: 300,
			CookingTime:     600,
			Ingredients:     []models.Ingredient{{Name: "Salt", Quantity: models.Grams(5)}},
			Steps:           []string{"Boil water"},
		},
	}
}

func soupBody(t *testing.T) []byte {
	t.Helper()
	data, err := models.EncodeBody(soupInput().Recipe)
	require.NoError(t, err)
	return data
}

func soupRow(id int64) *models.RecipeDB {
	return &models.RecipeDB{ID: id, Name: "Soup", Author: 1, AuthorName: "alice", CreatedAt: fixedNow}
}

func strPtr(s string) *string { return &s }

func TestRecipeService_Create(t *testing.T) {
	svc, m := newRecipeService(t, false)
	body := soupBody(t)
	// The row's timestamp comes from the database, not the service clock.
	insertedAt := fixedNow.Add(-1500 * time.Millisecond)

	gomock.InOrder(
		m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil),
		m.authors.EXPECT().GetByID(gomock.Any(), int64(1)).Return(&models.UserDB{ID: 1, Name: "alice"}, nil),
		m.writer.EXPECT().Insert(gomock.Any(), "Soup", nil, int64(1)).Return(int64(7), insertedAt, nil),
		m.blobs.EXPECT().Write(gomock.Any(), "recipe-7.json", body).Return(nil),
		m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil),
	)

	got, err := svc.Create(context.Background(), credential, soupInput(), nil)
	require.NoError(t, err)

	want := &models.Recipe{
		ID: 7,
		Meta: models.RecipeMetaView{
			Name:       "Soup",
			Author:     1,
			AuthorName: "alice",
			CreatedAt:  insertedAt,
		},
		Recipe: soupInput().Recipe,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Create() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecipeService_CreateWithImage(t *testing.T) {
	svc, m := newRecipeService(t, false)
	body := soupBody(t)
	image := []byte{0x89, 'P', 'N', 'G'}

	gomock.InOrder(
		m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil),
		m.authors.EXPECT().GetByID(gomock.Any(), int64(1)).Return(&models.UserDB{ID: 1, Name: "alice"}, nil),
		m.writer.EXPECT().Insert(gomock.Any(), "Soup", nil, int64(1)).Return(int64(7), fixedNow, nil),
		m.blobs.EXPECT().Write(gomock.Any(), "recipe-7.json", body).Return(nil),
		m.blobs.EXPECT().Write(gomock.Any(), "image-tok", image).Return(nil),
		m.writer.EXPECT().SetImageRef(gomock.Any(), int64(7), "image-tok").Return(nil),
		m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil),
	)

	got, err := svc.Create(context.Background(), credential, soupInput(), image)
	require.NoError(t, err)
	assert.True(t, got.Meta.HasImage)
}

func TestRecipeService_CreateCompensation(t *testing.T) {
	boom := errors.New("boom")
	image := []byte("img")

	tests := []struct {
		name  string
		image []byte
		setup func(m recipeMocks, body []byte)
	}{
		{
			name: "insert fails, nothing to undo",
			setup: func(m recipeMocks, body []byte) {
				m.writer.EXPECT().Insert(gomock.Any(), "Soup", nil, int64(1)).Return(int64(0), time.Time{}, boom)
			},
		},
		{
			name: "body write fails, row purged",
			setup: func(m recipeMocks, body []byte) {
				gomock.InOrder(
					m.writer.EXPECT().Insert(gomock.Any(), "Soup", nil, int64(1)).Return(int64(7), fixedNow, nil),
					m.blobs.EXPECT().Write(gomock.Any(), "recipe-7.json", body).Return(boom),
					m.writer.EXPECT().Purge(gomock.Any(), int64(7)).Return(nil),
				)
			},
		},
		{
			name:  "image write fails, body then row undone",
			image: image,
			setup: func(m recipeMocks, body []byte) {
				gomock.InOrder(
					m.writer.EXPECT().Insert(gomock.Any(), "Soup", nil, int64(1)).Return(int64(7), fixedNow, nil),
					m.blobs.EXPECT().Write(gomock.Any(), "recipe-7.json", body).Return(nil),
					m.blobs.EXPECT().Write(gomock.Any(), "image-tok", image).Return(boom),
					m.blobs.EXPECT().Delete(gomock.Any(), "recipe-7.json").Return(nil),
					m.writer.EXPECT().Purge(gomock.Any(), int64(7)).Return(nil),
				)
			},
		},
		{
			name:  "image ref fails, image then body then row undone",
			image: image,
			setup: func(m recipeMocks, body []byte) {
				gomock.InOrder(
					m.writer.EXPECT().Insert(gomock.Any(), "Soup", nil, int64(1)).Return(int64(7), fixedNow, nil),
					m.blobs.EXPECT().Write(gomock.Any(), "recipe-7.json", body).Return(nil),
					m.blobs.EXPECT().Write(gomock.Any(), "image-tok", image).Return(nil),
					m.writer.EXPECT().SetImageRef(gomock.Any(), int64(7), "image-tok").Return(boom),
					m.blobs.EXPECT().Delete(gomock.Any(), "image-tok").Return(nil),
					m.blobs.EXPECT().Delete(gomock.Any(), "recipe-7.json").Return(nil),
					m.writer.EXPECT().Purge(gomock.Any(), int64(7)).Return(nil),
				)
			},
		},
		{
			name: "failing compensation keeps the original cause",
			setup: func(m recipeMocks, body []byte) {
				gomock.InOrder(
					m.writer.EXPECT().Insert(gomock.Any(), "Soup", nil, int64(1)).Return(int64(7), fixedNow, nil),
					m.blobs.EXPECT().Write(gomock.Any(), "recipe-7.json", body).Return(boom),
					m.writer.EXPECT().Purge(gomock.Any(), int64(7)).Return(errors.New("purge failed")),
				)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newRecipeService(t, false)
			m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil)
			m.authors.EXPECT().GetByID(gomock.Any(), int64(1)).Return(&models.UserDB{ID: 1, Name: "alice"}, nil)
			tt.setup(m, soupBody(t))

			got, err := svc.Create(context.Background(), credential, soupInput(), tt.image)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, services.ErrStorageFailure)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestRecipeService_CreateRejected(t *testing.T) {
	twoKinds := soupInput()
	q := models.Grams(5)
	q.Count = models.Count(2).Count
	twoKinds.Recipe.Ingredients[0].Quantity = q

	noName := soupInput()
	noName.Meta.Name = ""

	tests := []struct {
		name    string
		input   models.RecipeInput
		setup   func(m recipeMocks)
		wantErr error
	}{
		{
			name:  "missing credential",
			input: soupInput(),
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(0), gate.ErrMissing)
			},
			wantErr: gate.ErrMissing,
		},
		{
			name:  "invalid credential",
			input: soupInput(),
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(0), gate.ErrInvalid)
			},
			wantErr: gate.ErrInvalid,
		},
		{
			name:  "deleted author",
			input: soupInput(),
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil)
				m.authors.EXPECT().GetByID(gomock.Any(), int64(1)).Return(&models.UserDB{ID: 1, Deleted: true}, nil)
			},
			wantErr: services.ErrNoSuchUser,
		},
		{
			name:  "unknown author",
			input: soupInput(),
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil)
				m.authors.EXPECT().GetByID(gomock.Any(), int64(1)).Return(nil, nil)
			},
			wantErr: services.ErrNoSuchUser,
		},
		{
			name:  "missing name",
			input: noName,
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil)
			},
			wantErr: services.ErrInvalidRecipe,
		},
		{
			name:  "ambiguous quantity",
			input: twoKinds,
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil)
			},
			wantErr: services.ErrInvalidRecipe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newRecipeService(t, false)
			tt.setup(m)

			_, err := svc.Create(context.Background(), credential, tt.input, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRecipeService_Read(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		withCache bool
		setup     func(m recipeMocks, body []byte)
		wantErr   error
	}{
		{
			name: "found",
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil)
				m.blobs.EXPECT().Read(gomock.Any(), "recipe-7.json").Return(body, nil)
			},
		},
		{
			name:      "cache miss fills cache",
			withCache: true,
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil)
				m.cache.EXPECT().Get(gomock.Any(), int64(7)).Return(nil, nil)
				m.blobs.EXPECT().Read(gomock.Any(), "recipe-7.json").Return(body, nil)
				m.cache.EXPECT().Set(gomock.Any(), int64(7), body).Return(nil)
			},
		},
		{
			name:      "cache hit skips blob store",
			withCache: true,
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil)
				m.cache.EXPECT().Get(gomock.Any(), int64(7)).Return(body, nil)
			},
		},
		{
			name:      "cache outage falls back to blob store",
			withCache: true,
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil)
				m.cache.EXPECT().Get(gomock.Any(), int64(7)).Return(nil, boom)
				m.blobs.EXPECT().Read(gomock.Any(), "recipe-7.json").Return(body, nil)
				m.cache.EXPECT().Set(gomock.Any(), int64(7), body).Return(boom)
			},
		},
		{
			name: "missing row",
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(nil, nil)
			},
			wantErr: services.ErrNotFound,
		},
		{
			name: "deleted row",
			setup: func(m recipeMocks, body []byte) {
				row := soupRow(7)
				row.Deleted = true
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(row, nil)
			},
			wantErr: services.ErrNotFound,
		},
		{
			name: "missing body is a storage failure",
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil)
				m.blobs.EXPECT().Read(gomock.Any(), "recipe-7.json").Return(nil, blobstore.ErrNotFound)
			},
			wantErr: services.ErrStorageFailure,
		},
		{
			name: "corrupt body is a storage failure",
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil)
				m.blobs.EXPECT().Read(gomock.Any(), "recipe-7.json").Return([]byte("{"), nil)
			},
			wantErr: services.ErrMalformed,
		},
		{
			name: "malformed row",
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(nil, models.ErrMalformedRow)
			},
			wantErr: services.ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newRecipeService(t, tt.withCache)
			tt.setup(m, soupBody(t))

			got, err := svc.Read(context.Background(), 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantErr != services.ErrNotFound {
					assert.ErrorIs(t, err, services.ErrStorageFailure)
				}
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(models.NewRecipe(soupRow(7), soupInput().Recipe), got); diff != "" {
				t.Errorf("Read() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecipeService_ReadImage(t *testing.T) {
	svc, m := newRecipeService(t, false)

	withImage := soupRow(7)
	withImage.ImageRef = strPtr("image-tok")
	m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(withImage, nil)
	m.blobs.EXPECT().Read(gomock.Any(), "image-tok").Return([]byte("png"), nil)

	data, err := svc.ReadImage(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	m.reader.EXPECT().GetByID(gomock.Any(), int64(8)).Return(soupRow(8), nil)
	_, err = svc.ReadImage(context.Background(), 8)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRecipeService_Search(t *testing.T) {
	name := "so"

	tests := []struct {
		name    string
		filter  models.RecipeFilter
		setup   func(m recipeMocks, body []byte)
		wantIDs []int64
		wantErr error
	}{
		{
			name:   "default limit applied",
			filter: models.RecipeFilter{Name: &name},
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().
					Search(gomock.Any(), models.RecipeFilter{Name: &name, Limit: services.DefaultSearchLimit}).
					Return([]models.RecipeDB{*soupRow(1), *soupRow(2)}, nil)
				m.blobs.EXPECT().Read(gomock.Any(), "recipe-1.json").Return(body, nil)
				m.blobs.EXPECT().Read(gomock.Any(), "recipe-2.json").Return(body, nil)
			},
			wantIDs: []int64{1, 2},
		},
		{
			name:   "empty filter lists everything",
			filter: models.RecipeFilter{Limit: 5, Page: 1},
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().
					Search(gomock.Any(), models.RecipeFilter{Limit: 5, Page: 1}).
					Return(nil, nil)
			},
			wantIDs: []int64{},
		},
		{
			name:    "limit above maximum rejected without a query",
			filter:  models.RecipeFilter{Limit: 300},
			setup:   func(m recipeMocks, body []byte) {},
			wantErr: services.ErrLimitExceeded,
		},
		{
			name:    "negative limit",
			filter:  models.RecipeFilter{Limit: -1},
			setup:   func(m recipeMocks, body []byte) {},
			wantErr: services.ErrInvalidFilter,
		},
		{
			name:    "negative page",
			filter:  models.RecipeFilter{Page: -1},
			setup:   func(m recipeMocks, body []byte) {},
			wantErr: services.ErrInvalidFilter,
		},
		{
			name:   "missing body fails the whole search",
			filter: models.RecipeFilter{Limit: 2},
			setup: func(m recipeMocks, body []byte) {
				m.reader.EXPECT().
					Search(gomock.Any(), models.RecipeFilter{Limit: 2}).
					Return([]models.RecipeDB{*soupRow(1), *soupRow(2)}, nil)
				m.blobs.EXPECT().Read(gomock.Any(), "recipe-1.json").Return(body, nil)
				m.blobs.EXPECT().Read(gomock.Any(), "recipe-2.json").Return(nil, blobstore.ErrNotFound)
			},
			wantErr: services.ErrStorageFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newRecipeService(t, false)
			tt.setup(m, soupBody(t))

			got, err := svc.Search(context.Background(), tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)

			ids := make([]int64, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestRecipeService_SearchLimits(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := services.NewMockRecipeReader(ctrl)
	svc := services.NewRecipeService(nil, nil, reader, nil, nil, services.WithSearchLimits(3, 4))

	reader.EXPECT().Search(gomock.Any(), models.RecipeFilter{Limit: 3}).Return(nil, nil)
	_, err := svc.Search(context.Background(), models.RecipeFilter{})
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), models.RecipeFilter{Limit: 5})
	assert.ErrorIs(t, err, services.ErrLimitExceeded)
}

func TestRecipeService_Delete(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		setup   func(m recipeMocks)
		wantErr error
	}{
		{
			name: "owner deletes, blobs removed",
			setup: func(m recipeMocks) {
				gomock.InOrder(
					m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil),
					m.writer.EXPECT().SoftDelete(gomock.Any(), int64(7), int64(1)).Return(strPtr("image-tok"), true, nil),
					m.cache.EXPECT().Delete(gomock.Any(), int64(7)).Return(nil),
					m.blobs.EXPECT().Delete(gomock.Any(), "recipe-7.json").Return(nil),
					m.blobs.EXPECT().Delete(gomock.Any(), "image-tok").Return(nil),
					m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil),
				)
			},
		},
		{
			name: "blob removal failure is swallowed",
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil)
				m.writer.EXPECT().SoftDelete(gomock.Any(), int64(7), int64(1)).Return(nil, true, nil)
				m.cache.EXPECT().Delete(gomock.Any(), int64(7)).Return(boom)
				m.blobs.EXPECT().Delete(gomock.Any(), "recipe-7.json").Return(boom)
				m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(boom)
			},
		},
		{
			name: "someone else's recipe",
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(2), nil)
				m.writer.EXPECT().SoftDelete(gomock.Any(), int64(7), int64(2)).Return(nil, false, nil)
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil)
				m.gate.EXPECT().AuthorizeOwner(gomock.Any(), credential, int64(1)).Return(gate.ErrForbidden)
			},
			wantErr: services.ErrForbidden,
		},
		{
			name: "already deleted",
			setup: func(m recipeMocks) {
				row := soupRow(7)
				row.Deleted = true
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil)
				m.writer.EXPECT().SoftDelete(gomock.Any(), int64(7), int64(1)).Return(nil, false, nil)
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(row, nil)
			},
			wantErr: services.ErrNotFound,
		},
		{
			name: "never existed",
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil)
				m.writer.EXPECT().SoftDelete(gomock.Any(), int64(7), int64(1)).Return(nil, false, nil)
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(nil, nil)
			},
			wantErr: services.ErrNotFound,
		},
		{
			name: "invalid credential touches no store",
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(0), gate.ErrInvalid)
			},
			wantErr: gate.ErrInvalid,
		},
		{
			name: "store error",
			setup: func(m recipeMocks) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil)
				m.writer.EXPECT().SoftDelete(gomock.Any(), int64(7), int64(1)).Return(nil, false, boom)
			},
			wantErr: services.ErrStorageFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newRecipeService(t, true)
			tt.setup(m)

			err := svc.Delete(context.Background(), credential, 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRecipeService_Update(t *testing.T) {
	boom := errors.New("boom")
	image := []byte("new image")
	editedAt := fixedNow

	withImage := func() *models.RecipeDB {
		row := soupRow(7)
		row.ImageRef = strPtr("image-old")
		return row
	}

	tests := []struct {
		name    string
		image   []byte
		setup   func(m recipeMocks, body []byte)
		wantErr error
	}{
		{
			name: "owner replaces metadata and body",
			setup: func(m recipeMocks, body []byte) {
				gomock.InOrder(
					m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil),
					m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(withImage(), nil),
					m.gate.EXPECT().AuthorizeOwner(gomock.Any(), credential, int64(1)).Return(nil),
					m.writer.EXPECT().Update(gomock.Any(), int64(7), int64(1), "Soup", nil, strPtr("image-old"), editedAt).Return(true, nil),
					m.blobs.EXPECT().Write(gomock.Any(), "recipe-7.json", body).Return(nil),
					m.cache.EXPECT().Delete(gomock.Any(), int64(7)).Return(nil),
					m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil),
				)
			},
		},
		{
			name:  "new image replaces the old one",
			image: image,
			setup: func(m recipeMocks, body []byte) {
				gomock.InOrder(
					m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil),
					m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(withImage(), nil),
					m.gate.EXPECT().AuthorizeOwner(gomock.Any(), credential, int64(1)).Return(nil),
					m.blobs.EXPECT().Write(gomock.Any(), "image-tok", image).Return(nil),
					m.writer.EXPECT().Update(gomock.Any(), int64(7), int64(1), "Soup", nil, strPtr("image-tok"), editedAt).Return(true, nil),
					m.blobs.EXPECT().Write(gomock.Any(), "recipe-7.json", body).Return(nil),
					m.cache.EXPECT().Delete(gomock.Any(), int64(7)).Return(nil),
					m.blobs.EXPECT().Delete(gomock.Any(), "image-old").Return(nil),
					m.kafka.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil),
				)
			},
		},
		{
			name: "someone else's recipe is not written",
			setup: func(m recipeMocks, body []byte) {
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(2), nil)
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil)
				m.gate.EXPECT().AuthorizeOwner(gomock.Any(), credential, int64(1)).Return(gate.ErrForbidden)
			},
			wantErr: services.ErrForbidden,
		},
		{
			name: "deleted recipe",
			setup: func(m recipeMocks, body []byte) {
				row := soupRow(7)
				row.Deleted = true
				m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil)
				m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(row, nil)
			},
			wantErr: services.ErrNotFound,
		},
		{
			name:  "row vanished, new image undone",
			image: image,
			setup: func(m recipeMocks, body []byte) {
				gomock.InOrder(
					m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil),
					m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil),
					m.gate.EXPECT().AuthorizeOwner(gomock.Any(), credential, int64(1)).Return(nil),
					m.blobs.EXPECT().Write(gomock.Any(), "image-tok", image).Return(nil),
					m.writer.EXPECT().Update(gomock.Any(), int64(7), int64(1), "Soup", nil, strPtr("image-tok"), editedAt).Return(false, nil),
					m.blobs.EXPECT().Delete(gomock.Any(), "image-tok").Return(nil),
				)
			},
			wantErr: services.ErrNotFound,
		},
		{
			name:  "metadata update fails, new image undone",
			image: image,
			setup: func(m recipeMocks, body []byte) {
				gomock.InOrder(
					m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil),
					m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil),
					m.gate.EXPECT().AuthorizeOwner(gomock.Any(), credential, int64(1)).Return(nil),
					m.blobs.EXPECT().Write(gomock.Any(), "image-tok", image).Return(nil),
					m.writer.EXPECT().Update(gomock.Any(), int64(7), int64(1), "Soup", nil, strPtr("image-tok"), editedAt).Return(false, boom),
					m.blobs.EXPECT().Delete(gomock.Any(), "image-tok").Return(nil),
				)
			},
			wantErr: services.ErrStorageFailure,
		},
		{
			name: "body write fails after metadata",
			setup: func(m recipeMocks, body []byte) {
				gomock.InOrder(
					m.gate.EXPECT().Authorize(gomock.Any(), credential).Return(int64(1), nil),
					m.reader.EXPECT().GetByID(gomock.Any(), int64(7)).Return(soupRow(7), nil),
					m.gate.EXPECT().AuthorizeOwner(gomock.Any(), credential, int64(1)).Return(nil),
					m.writer.EXPECT().Update(gomock.Any(), int64(7), int64(1), "Soup", nil, nil, editedAt).Return(true, nil),
					m.blobs.EXPECT().Write(gomock.Any(), "recipe-7.json", body).Return(boom),
				)
			},
			wantErr: services.ErrStorageFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newRecipeService(t, true)
			tt.setup(m, soupBody(t))

			got, err := svc.Update(context.Background(), credential, 7, soupInput(), tt.image)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got.Meta.EditedAt)
			assert.Equal(t, editedAt, *got.Meta.EditedAt)
		})
	}
}
