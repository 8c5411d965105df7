package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"insurecow/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by lookups that found nothing.
var ErrCacheMiss = errors.New("cache miss")

// CacheService stores JSON values in redis. A nil *CacheService is a valid
// no-op cache so that callers never need to branch on whether redis is configured.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if s == nil {
		return nil
	}
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// Get decodes the value under key into dest and reports whether it was present.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s == nil {
		return false, nil
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if s == nil || len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// cachedCredential is the cached projection of a credential. The password hash never leaves the database.
type cachedCredential struct {
	ID            uint         `json:"id"`
	MobileNumber  string       `json:"mobile_number"`
	RoleID        *uint        `json:"role_id"`
	Role          *models.Role `json:"role"`
	ManagedByID   *uint        `json:"managed_by"`
	OnboardedByID *uint        `json:"onboarded_by"`
	IsActive      bool         `json:"is_active"`
	IsStaff       bool         `json:"is_staff"`
	IsSuperuser   bool         `json:"is_superuser"`
	CreatedAt     time.Time    `json:"date_joined"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Credential caching
func (s *CacheService) CacheCredential(ctx context.Context, c *models.Credential) error {
	if c == nil {
		return errors.New("cannot cache nil credential")
	}
	return s.Set(ctx, GenerateKey(EntityCredential, KeyID, c.ID), cachedCredential{
		ID:            c.ID,
		MobileNumber:  c.MobileNumber,
		RoleID:        c.RoleID,
		Role:          c.Role,
		ManagedByID:   c.ManagedByID,
		OnboardedByID: c.OnboardedByID,
		IsActive:      c.IsActive,
		IsStaff:       c.IsStaff,
		IsSuperuser:   c.IsSuperuser,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	})
}

// GetCredential returns ErrCacheMiss when id is not cached.
func (s *CacheService) GetCredential(ctx context.Context, id uint) (*models.Credential, error) {
	var cc cachedCredential
	found, err := s.Get(ctx, GenerateKey(EntityCredential, KeyID, id), &cc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCacheMiss
	}
	return &models.Credential{
		ID:            cc.ID,
		MobileNumber:  cc.MobileNumber,
		RoleID:        cc.RoleID,
		Role:          cc.Role,
		ManagedByID:   cc.ManagedByID,
		OnboardedByID: cc.OnboardedByID,
		IsActive:      cc.IsActive,
		IsStaff:       cc.IsStaff,
		IsSuperuser:   cc.IsSuperuser,
		CreatedAt:     cc.CreatedAt,
		UpdatedAt:     cc.UpdatedAt,
	}, nil
}

// Invalidation
func (s *CacheService) InvalidateCredentials(ctx context.Context, ids ...uint) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, GenerateKey(EntityCredential, KeyID, id))
	}
	return s.Delete(ctx, keys...)
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
