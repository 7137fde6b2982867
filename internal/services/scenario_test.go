package services_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sbilibin2017/gw-recipe-book/internal/blobstore"
	"github.com/sbilibin2017/gw-recipe-book/internal/gate"
	"github.com/sbilibin2017/gw-recipe-book/internal/jwt"
	"github.com/sbilibin2017/gw-recipe-book/internal/models"
	"github.com/sbilibin2017/gw-recipe-book/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore keeps users and recipes in memory with the same conditional
// semantics as the SQL repositories.
type memoryStore struct {
	mu      sync.Mutex
	users   map[int64]*models.UserDB
	recipes map[int64]*models.RecipeDB
	nextID  int64
}

func newMemoryStore(users ...models.UserDB) *memoryStore {
	s := &memoryStore{users: map[int64]*models.UserDB{}, recipes: map[int64]*models.RecipeDB{}}
	for i := range users {
		s.users[users[i].ID] = &users[i]
	}
	return s
}

func (s *memoryStore) GetUser(id int64) (*models.UserDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

type memoryAuthors struct{ *memoryStore }

func (a memoryAuthors) GetByID(ctx context.Context, id int64) (*models.UserDB, error) {
	return a.GetUser(id)
}

func (s *memoryStore) GetByID(ctx context.Context, id int64) (*models.RecipeDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.recipes[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) Search(ctx context.Context, f models.RecipeFilter) ([]models.RecipeDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contains := func(v, sub string) bool { return strings.Contains(strings.ToLower(v), strings.ToLower(sub)) }
	var out []models.RecipeDB
	for _, r := range s.recipes {
		if r.Deleted ||
			(f.Name != nil && !contains(r.Name, *f.Name)) ||
			(f.Author != nil && !contains(r.AuthorName, *f.Author)) ||
			(f.AuthorID != nil && r.Author != *f.AuthorID) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	start := f.Limit * f.Page
	if start >= len(out) {
		return nil, nil
	}
	out = out[start:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memoryStore) Insert(ctx context.Context, name string, description *string, author int64) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	createdAt := time.Now().UTC()
	s.recipes[s.nextID] = &models.RecipeDB{
		ID: s.nextID, Name: name, Description: description, Author: author,
		AuthorName: s.users[author].Name, CreatedAt: createdAt,
	}
	return s.nextID, createdAt, nil
}

func (s *memoryStore) SetImageRef(ctx context.Context, id int64, imageRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes[id].ImageRef = &imageRef
	return nil
}

func (s *memoryStore) Update(ctx context.Context, id, author int64, name string, description, imageRef *string, editedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok || r.Deleted || r.Author != author {
		return false, nil
	}
	r.Name, r.Description, r.ImageRef, r.EditedAt = name, description, imageRef, &editedAt
	return true, nil
}

func (s *memoryStore) SoftDelete(ctx context.Context, id, author int64) (*string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok || r.Deleted || r.Author != author {
		return nil, false, nil
	}
	r.Deleted = true
	return r.ImageRef, true, nil
}

func (s *memoryStore) Purge(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recipes, id)
	return nil
}

// flakyBlobs fails writes of keys with the given prefix.
type flakyBlobs struct {
	*blobstore.FileStore
	failPrefix string
}

func (f flakyBlobs) Write(ctx context.Context, key string, data []byte) error {
	if f.failPrefix != "" && strings.HasPrefix(key, f.failPrefix) {
		return errors.New("disk full")
	}
	return f.FileStore.Write(ctx, key, data)
}

type scenario struct {
	svc   *services.RecipeService
	store *memoryStore
	blobs *blobstore.FileStore
	codec *jwt.Codec
	alice string
	bob   string
}

func newScenario(t *testing.T, failPrefix string) *scenario {
	t.Helper()
	ctx := context.Background()

	codec := jwt.New(jwt.WithSecretKey("scenario-secret"), jwt.WithExpiration(time.Hour))
	store := newMemoryStore(
		models.UserDB{ID: 1, Name: "alice"},
		models.UserDB{ID: 2, Name: "bob"},
	)
	files, err := blobstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	blobs := &flakyBlobs{FileStore: files, failPrefix: failPrefix}

	t1, err := codec.Generate(ctx, 1)
	require.NoError(t, err)
	t2, err := codec.Generate(ctx, 2)
	require.NoError(t, err)

	svc := services.NewRecipeService(gate.New(codec), memoryAuthors{store}, store, store, blobs)
	return &scenario{svc: svc, store: store, blobs: files, codec: codec, alice: "Bearer " + t1, bob: "Bearer " + t2}
}

func TestScenario_AliceAndBob(t *testing.T) {
	ctx := context.Background()
	sc := newScenario(t, "")

	created, err := sc.svc.Create(ctx, sc.alice, soupInput(), nil)
	require.NoError(t, err)
	id := created.ID

	read, err := sc.svc.Read(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(soupInput().Recipe, read.Recipe); diff != "" {
		t.Errorf("Read() body mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "alice", read.Meta.AuthorName)

	stored, err := sc.blobs.Read(ctx, blobstore.BodyKey(id))
	require.NoError(t, err)
	assert.Equal(t, soupBody(t), stored, "body bytes are stored unchanged")

	assert.ErrorIs(t, sc.svc.Delete(ctx, sc.bob, id), services.ErrForbidden)
	_, err = sc.svc.Update(ctx, sc.bob, id, soupInput(), nil)
	assert.ErrorIs(t, err, services.ErrForbidden)

	require.NoError(t, sc.svc.Delete(ctx, sc.alice, id))

	_, err = sc.svc.Read(ctx, id)
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.ErrorIs(t, sc.svc.Delete(ctx, sc.alice, id), services.ErrNotFound)
	assert.ErrorIs(t, sc.svc.Delete(ctx, sc.alice, id+100), services.ErrNotFound)

	found, err := sc.svc.Search(ctx, models.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = sc.blobs.Read(ctx, blobstore.BodyKey(id))
	assert.ErrorIs(t, err, blobstore.ErrNotFound, "body blob reclaimed on delete")
}

func TestScenario_CreateFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	sc := newScenario(t, "recipe-")

	_, err := sc.svc.Create(ctx, sc.alice, soupInput(), nil)
	require.ErrorIs(t, err, services.ErrStorageFailure)

	_, err = sc.svc.Read(ctx, 1)
	assert.ErrorIs(t, err, services.ErrNotFound)

	found, err := sc.svc.Search(ctx, models.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestScenario_ImageFailureUndoesBody(t *testing.T) {
	ctx := context.Background()
	sc := newScenario(t, "image-")

	_, err := sc.svc.Create(ctx, sc.alice, soupInput(), []byte("png"))
	require.ErrorIs(t, err, services.ErrStorageFailure)

	_, err = sc.blobs.Read(ctx, blobstore.BodyKey(1))
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
	_, err = sc.svc.Read(ctx, 1)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestScenario_SearchCapAndUpdate(t *testing.T) {
	ctx := context.Background()
	sc := newScenario(t, "")

	for i := 0; i < 3; i++ {
		_, err := sc.svc.Create(ctx, sc.alice, soupInput(), nil)
		require.NoError(t, err)
	}

	_, err := sc.svc.Search(ctx, models.RecipeFilter{Limit: 300})
	assert.ErrorIs(t, err, services.ErrLimitExceeded)

	page, err := sc.svc.Search(ctx, models.RecipeFilter{Limit: 2, Page: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(3), page[0].ID)

	edit := soupInput()
	edit.Meta.Name = "Stew"
	edit.Recipe.Steps = append(edit.Recipe.Steps, "Simmer")
	updated, err := sc.svc.Update(ctx, sc.alice, 2, edit, []byte("jpeg"))
	require.NoError(t, err)
	assert.True(t, updated.Meta.HasImage)

	read, err := sc.svc.Read(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Stew", read.Meta.Name)
	assert.Equal(t, []string{"Boil water", "Simmer"}, read.Recipe.Steps)
	assert.NotNil(t, read.Meta.EditedAt)

	image, err := sc.svc.ReadImage(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), image)

	stew := "stew"
	found, err := sc.svc.Search(ctx, models.RecipeFilter{Name: &stew})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(2), found[0].ID)
}

func TestScenario_DeletedAuthorCannotCreate(t *testing.T) {
	ctx := context.Background()
	sc := newScenario(t, "")
	sc.store.users[1].Deleted = true

	_, err := sc.svc.Create(ctx, sc.alice, soupInput(), nil)
	assert.ErrorIs(t, err, services.ErrNoSuchUser)
}

func TestScenario_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	sc := newScenario(t, "")

	expired, err := sc.codec.Issue(ctx, 1, -time.Minute)
	require.NoError(t, err)

	_, err = sc.svc.Create(ctx, "Bearer "+expired, soupInput(), nil)
	assert.ErrorIs(t, err, gate.ErrInvalid)
	assert.ErrorIs(t, err, jwt.ErrExpired)

	_, err = sc.svc.Create(ctx, "", soupInput(), nil)
	assert.ErrorIs(t, err, gate.ErrMissing)
}
