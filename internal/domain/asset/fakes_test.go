package asset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"figureit/internal/database"
	"figureit/internal/domain/category"
	"figureit/internal/pkg/logger"
	"figureit/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// memStore is an in-memory ObjectStore.
type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	calls     int
	uploadErr error
	removeErr error
	signErr   error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memStore) Upload(_ context.Context, p string, r io.Reader, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.uploadErr != nil {
		return m.uploadErr
	}
	if _, ok := m.objects[p]; ok {
		return storage.ErrObjectExists
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[p] = b
	m.types[p] = contentType
	return nil
}

func (m *memStore) PublicURL(p string) string {
	return "https://cdn.figureit.test/FigureIt_Assets/" + p
}

func (m *memStore) SignedURL(_ context.Context, p string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.signErr != nil {
		return "", m.signErr
	}
	return "https://signed.figureit.test/" + p + "?ttl=" + ttl.String(), nil
}

func (m *memStore) Remove(_ context.Context, paths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.removeErr != nil {
		return m.removeErr
	}
	for _, p := range paths {
		delete(m.objects, p)
	}
	return nil
}

func (m *memStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// contentTypes returns the uploaded content types in key order.
func (m *memStore) contentTypes() []string {
	keys := m.keys()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.types[k])
	}
	return out
}

func (m *memStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// flakyRepo fails selected writes of an otherwise real repository.
type flakyRepo struct {
	*AssetRepository
	createErr error
	addErr    error
	updateErr error
	deleteErr error
}

func (f *flakyRepo) Create(ctx context.Context, a *Asset) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.AssetRepository.Create(ctx, a)
}

func (f *flakyRepo) AddLinks(ctx context.Context, assetID int64, ids []int64) error {
	if f.addErr != nil {
		return f.addErr
	}
	return f.AssetRepository.AddLinks(ctx, assetID, ids)
}

func (f *flakyRepo) Update(ctx context.Context, owner uuid.UUID, id int64, fields map[string]interface{}) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.AssetRepository.Update(ctx, owner, id, fields)
}

func (f *flakyRepo) Delete(ctx context.Context, owner uuid.UUID, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.AssetRepository.Delete(ctx, owner, id)
}

type fixture struct {
	svc   *Service
	repo  *flakyRepo
	store *memStore
	cats  *category.Service
	owner uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	models := append([]interface{}{category.Model()}, Models()...)
	require.NoError(t, database.Migrate(db, models...))

	log := logger.NewNop()
	cats := category.NewService(category.NewRepository(db), log)
	repo := &flakyRepo{AssetRepository: NewRepository(db)}
	store := newMemStore()
	return &fixture{
		svc:   NewService(repo, store, cats, log, time.Hour),
		repo:  repo,
		store: store,
		cats:  cats,
		owner: uuid.New(),
	}
}

func (f *fixture) category(t *testing.T, name string) int64 {
	t.Helper()
	c, err := f.cats.Create(context.Background(), f.owner, name)
	require.NoError(t, err)
	return c.ID
}

func imageForm(title string, categoryIDs ...int64) UploadForm {
	return UploadForm{
		Kind: KindImage,
		File: &FileInput{
			Name:        "Blue Vase.PNG",
			Size:        int64(len(pngHeader)),
			ContentType: "image/png",
			Body:        bytes.NewReader(pngHeader),
		},
		Title:       title,
		CategoryIDs: categoryIDs,
	}
}

func (f *fixture) create(t *testing.T, title string, categoryIDs ...int64) *Asset {
	t.Helper()
	res, err := f.svc.Create(context.Background(), f.owner, imageForm(title, categoryIDs...))
	require.NoError(t, err)
	require.Empty(t, res.Warning)
	return res.Asset
}

var errBackend = errors.New("backend unavailable")
