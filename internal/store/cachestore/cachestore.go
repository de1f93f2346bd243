// Package cachestore persists the CLI's auth token and cached resource
// payloads in a local sqlite database through GORM.
package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sankofalearn/sankofa-go/pkg/api"
)

// Cache keys for the dashboard refresh.
const (
	KeyDashboardStats = "dashboard_stats"
	KeyPurchases      = "purchases"
	KeyTasks          = "tasks"
)

// ErrPayloadMissing reports a cache miss.
var ErrPayloadMissing = errors.New("cached payload missing")

// Store implements the api.TokenStore contract and a staleness-aware
// payload cache over one gorm.DB.
type Store struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db, nowFn: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates the cache tables.
func (store *Store) Migrate() error {
	if err := store.db.AutoMigrate(&Credential{}, &CachedPayload{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Token returns the persisted credential, if any.
func (store *Store) Token() (string, bool) {
	var credential Credential
	err := store.db.Order("updated_at desc").First(&credential).Error
	if err != nil {
		return "", false
	}
	return credential.Token, credential.Token != ""
}

// SetToken replaces the persisted credential.
func (store *Store) SetToken(token string) error {
	if err := store.db.Where("1 = 1").Delete(&Credential{}).Error; err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	credential := Credential{Token: token, UpdatedAt: store.nowFn()}
	if err := store.db.Create(&credential).Error; err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// ClearToken forgets the persisted credential.
func (store *Store) ClearToken() error {
	if err := store.db.Where("1 = 1").Delete(&Credential{}).Error; err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// PutPayload upserts a cached resource payload.
func (store *Store) PutPayload(ctx context.Context, key string, payload []byte) error {
	record := CachedPayload{
		Key:       key,
		Payload:   datatypes.JSON(payload),
		FetchedAt: store.nowFn(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("store payload %q: %w", key, err)
	}
	return nil
}

// Payload returns a cached payload no older than maxAge. A zero maxAge
// accepts any age.
func (store *Store) Payload(ctx context.Context, key string, maxAge time.Duration) ([]byte, error) {
	var record CachedPayload
	err := store.db.WithContext(ctx).Where("key = ?", key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrPayloadMissing, key)
	}
	if err != nil {
		return nil, fmt.Errorf("load payload %q: %w", key, err)
	}
	if maxAge > 0 && store.nowFn().Sub(record.FetchedAt) > maxAge {
		return nil, fmt.Errorf("%w: %q is stale", ErrPayloadMissing, key)
	}
	return []byte(record.Payload), nil
}

// DashboardClient is the slice of the API client the refresh needs.
type DashboardClient interface {
	DashboardStats(ctx context.Context) (api.DashboardStats, error)
	ListPurchases(ctx context.Context, page int) (api.PaginatedList[api.Purchase], error)
	ListTasks(ctx context.Context) ([]api.Task, error)
}

// RefreshDashboard fetches stats, purchases, and tasks concurrently and
// caches each payload. The first failure cancels the remaining fetches.
func (store *Store) RefreshDashboard(ctx context.Context, client DashboardClient) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		stats, err := client.DashboardStats(groupCtx)
		if err != nil {
			return err
		}
		return store.cacheValue(groupCtx, KeyDashboardStats, stats)
	})
	group.Go(func() error {
		purchases, err := client.ListPurchases(groupCtx, 1)
		if err != nil {
			return err
		}
		return store.cacheValue(groupCtx, KeyPurchases, purchases)
	})
	group.Go(func() error {
		tasks, err := client.ListTasks(groupCtx)
		if err != nil {
			return err
		}
		return store.cacheValue(groupCtx, KeyTasks, tasks)
	})

	return group.Wait()
}

func (store *Store) cacheValue(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal payload %q: %w", key, err)
	}
	return store.PutPayload(ctx, key, payload)
}
