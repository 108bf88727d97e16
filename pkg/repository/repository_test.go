package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"

	"github.com/ammar0144/persistq/pkg/cache"
	"github.com/ammar0144/persistq/pkg/db"
	"github.com/ammar0144/persistq/pkg/metadata"
)

type Author struct {
	ID   uint
	Name string
}

type Book struct {
	ID       uint
	Title    string
	AuthorID uint `gorm:"not null"`
	Author   *Author
}

type Tag struct {
	Code string `gorm:"primaryKey"`
}

func (t Tag) GetPrimaryKeyValue() interface{} { return t.Code }

type fixture struct {
	manager  *db.Manager
	registry *metadata.Registry
	cache    *cache.Cache
	authors  *GenericRepository[Author]
	books    *GenericRepository[Book]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := db.DefaultConfig()
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	cfg.LogLevel = "silent"

	manager, err := db.NewManagerWithDialector(cfg, sqlite.Open(":memory:?_foreign_keys=on"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	gdb := manager.DB()
	require.NoError(t, gdb.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, gdb.AutoMigrate(&Author{}, &Book{}, &Tag{}))
	require.NoError(t, gdb.Exec("CREATE TABLE book_tags (book_id INTEGER NOT NULL, tag_code TEXT NOT NULL)").Error)

	registry, err := metadata.NewRegistry()
	require.NoError(t, err)

	qc, err := cache.New(nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, qc.Connect(context.Background()))

	settings := Settings{CacheDuration: time.Minute, Logger: zaptest.NewLogger(t)}
	authors, err := NewGenericRepository[Author](manager, registry, qc, settings)
	require.NoError(t, err)
	books, err := NewGenericRepository[Book](manager, registry, qc, settings)
	require.NoError(t, err)

	return &fixture{manager: manager, registry: registry, cache: qc, authors: authors, books: books}
}

func TestUnitOfWork_CommitsInDependencyOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	uow := f.books.UnitOfWork()
	require.NoError(t, uow.Insert(ctx, &Book{ID: 1, Title: "Use of Weapons", AuthorID: 7}))
	require.NoError(t, uow.Insert(ctx, &Tag{Code: "scifi"}))
	uow.Link("book_tags", map[string]interface{}{"book_id": 1, "tag_code": "scifi"})
	require.NoError(t, uow.Insert(ctx, &Author{ID: 7, Name: "Banks"}))
	assert.Equal(t, 4, uow.Len())

	require.NoError(t, uow.Commit(ctx))
	assert.Zero(t, uow.Len())

	book, err := f.books.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Equal(t, uint(7), book.AuthorID)

	var links int64
	require.NoError(t, f.manager.DB().Table("book_tags").Count(&links).Error)
	assert.Equal(t, int64(1), links)

	remove := f.books.UnitOfWork()
	require.NoError(t, remove.Remove(ctx, &Author{ID: 7}))
	require.NoError(t, remove.Remove(ctx, &Book{ID: 1}))
	remove.Unlink("book_tags", map[string]interface{}{"book_id": 1, "tag_code": "scifi"})
	require.NoError(t, remove.Commit(ctx))

	missing, err := f.books.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUnitOfWork_FailedCommitKeepsChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	uow := f.books.UnitOfWork()
	require.NoError(t, uow.Insert(ctx, &Book{ID: 1, Title: "Orphan", AuthorID: 99}))
	require.Error(t, uow.Commit(ctx))
	assert.Equal(t, 1, uow.Len())

	require.NoError(t, uow.Insert(ctx, &Author{ID: 99, Name: "Found"}))
	require.NoError(t, uow.Commit(ctx))
}

func TestUnitOfWork_RemoveNeedsPrimaryKey(t *testing.T) {
	f := newFixture(t)

	uow := f.authors.UnitOfWork()
	assert.Error(t, uow.Remove(context.Background(), &Author{}))
	assert.Error(t, uow.Update(context.Background(), nil))
	assert.Zero(t, uow.Len())
}

func TestRepository_FindByIDIsCacheFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.authors.Create(ctx, &Author{ID: 1, Name: "Le Guin"}))

	first, err := f.authors.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Le Guin", first.Name)

	// a write behind the repository's back is not seen until eviction
	require.NoError(t, f.manager.DB().Model(&Author{}).Where("id = ?", 1).Update("name", "Ursula K. Le Guin").Error)

	cached, err := f.authors.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Le Guin", cached.Name)
	assert.Equal(t, uint64(1), f.cache.GetMetrics().CacheHits)

	require.NoError(t, f.authors.InvalidateCache(ctx, 1))
	fresh, err := f.authors.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ursula K. Le Guin", fresh.Name)
}

func TestRepository_WritesEvictCachedRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	author := &Author{ID: 1, Name: "Banks"}
	require.NoError(t, f.authors.Create(ctx, author))
	_, err := f.authors.FindByID(ctx, 1)
	require.NoError(t, err)

	author.Name = "Iain M. Banks"
	require.NoError(t, f.authors.Update(ctx, author))

	updated, err := f.authors.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Iain M. Banks", updated.Name)

	require.NoError(t, f.authors.Delete(ctx, author))
	deleted, err := f.authors.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, deleted)
}

func TestRepository_FindWhereCachesByQuery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.authors.Create(ctx, &Author{ID: 1, Name: "Banks"}, &Author{ID: 2, Name: "Le Guin"}))
	require.NoError(t, f.books.Create(ctx,
		&Book{ID: 1, Title: "Excession", AuthorID: 1},
		&Book{ID: 2, Title: "Matter", AuthorID: 1},
		&Book{ID: 3, Title: "Always Coming Home", AuthorID: 2},
	))

	books, err := f.books.FindWhere(ctx, "author_id = ?", 1)
	require.NoError(t, err)
	assert.Len(t, books, 2)

	again, err := f.books.FindWhere(ctx, "author_id = ?", 1)
	require.NoError(t, err)
	assert.Equal(t, books, again)
	assert.Equal(t, uint64(1), f.cache.GetMetrics().CacheHits)

	other, err := f.books.FindWhere(ctx, "author_id = ?", 2)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "Always Coming Home", other[0].Title)
}

func TestRepository_WithoutCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	authors, err := NewGenericRepository[Author](f.manager, f.registry, nil, Settings{})
	require.NoError(t, err)

	require.NoError(t, authors.Create(ctx, &Author{ID: 5, Name: "Delany"}))
	found, err := authors.FindByID(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.NoError(t, authors.InvalidateCache(ctx, 5))

	assert.Error(t, authors.Create(ctx, nil))
	_, err = authors.FindByID(ctx, nil)
	assert.Error(t, err)
}

func TestEntityIdentifier(t *testing.T) {
	assert.Equal(t, "authors:42", EntityIdentifier("authors", 42))
	assert.Equal(t, "tags:scifi", EntityIdentifier("tags", "scifi"))
}
