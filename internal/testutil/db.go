// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"insurecow/internal/models"
	"insurecow/internal/repositories"
	"insurecow/internal/repositories/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated sqlite database under t.TempDir() with foreign keys enforced.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), repositories.GormConfig())
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))

	t.Cleanup(func() { repositories.Close(db) })
	return db
}

// NewRepositories returns a repository bundle over a fresh database with the
// well-known roles seeded.
func NewRepositories(t *testing.T) *repositories.Repositories {
	t.Helper()

	repos := repositories.New(NewDB(t), nil)
	SeedRoles(t, repos)
	return repos
}

// SeedRoles inserts roles 1, 2 and 3.
func SeedRoles(t *testing.T, repos *repositories.Repositories) {
	t.Helper()
	for _, r := range models.DefaultRoles() {
		role := r
		require.NoError(t, repos.Roles.Seed(context.Background(), &role))
	}
}

// CreateCredential inserts a credential directly, bypassing provisioning.
// The password column holds a placeholder hash.
func CreateCredential(t *testing.T, repos *repositories.Repositories, c *models.Credential) *models.Credential {
	t.Helper()
	if c.Password == "" {
		c.Password = "x"
	}
	require.NoError(t, repos.Credentials.Create(context.Background(), c))
	return c
}

func UintPtr(v uint) *uint {
	return &v
}

// NewCache returns a cache service backed by an in-process miniredis server.
func NewCache(t *testing.T) (*cache.CacheService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	svc := cache.NewCacheService(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, mr
}
