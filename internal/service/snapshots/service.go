package snapshots

import (
	"context"
	"errors"
	"sync/atomic"

	"photocapture/internal/cache"
	"photocapture/internal/logger"
	"photocapture/internal/model"
)

// CollectionKey is the cache key of the snapshot list.
const CollectionKey = "snapshots"

// DetailKey is the cache key of a single snapshot.
func DetailKey(id string) string {
	return CollectionKey + "/" + id
}

var ErrNoStatusChange = model.ErrNoStatusChange

// Backend is the remote system of record for snapshots.
type Backend interface {
	List(ctx context.Context) ([]model.Snapshot, error)
	Create(ctx context.Context, req model.CreateRequest) (model.Snapshot, error)
	UpdateStatus(ctx context.Context, id string, change model.StatusChange) (model.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// Service exposes one cached read and three writes. Writes never touch the cached
// list directly; they mark it stale once the backend confirms the change.
type Service struct {
	backend  Backend
	cache    *cache.Cache
	list     *cache.Query[[]model.Snapshot]
	logger   *logger.Logger
	creating atomic.Int32
	updating atomic.Int32
	deleting atomic.Int32
}

func NewService(backend Backend, c *cache.Cache, logger *logger.Logger) *Service {
	return &Service{
		backend: backend,
		cache:   c,
		list:    cache.NewQuery(c, CollectionKey, backend.List),
		logger:  logger,
	}
}

// List returns the cached snapshots when fresh, otherwise re-fetches them.
func (s *Service) List(ctx context.Context) ([]model.Snapshot, error) {
	snapshots, err := s.list.Get(ctx)
	if errors.Is(err, cache.ErrStore) {
		s.logger.Warning("Snapshot list fetched but not cached: %v", err)
		return snapshots, nil
	}
	return snapshots, err
}

// Peek returns the last cached list, fresh or stale, without contacting the backend.
func (s *Service) Peek(ctx context.Context) (snapshots []model.Snapshot, fresh bool, found bool) {
	snapshots, fresh, found, err := s.list.Peek(ctx)
	if err != nil {
		s.logger.Warning("Reading cached snapshots failed: %v", err)
		return nil, false, false
	}
	return snapshots, fresh, found
}

// Loading reports whether the first fetch is still running.
func (s *Service) Loading() bool {
	return s.list.Loading()
}

// Prefetch fills the cache in the background.
func (s *Service) Prefetch(ctx context.Context) {
	go func() {
		if _, err := s.List(ctx); err != nil {
			s.logger.Error("Prefetching snapshots failed: %v", err)
		}
	}()
}

// Create submits a new snapshot.
func (s *Service) Create(ctx context.Context, req model.CreateRequest) (model.Snapshot, error) {
	s.creating.Add(1)
	defer s.creating.Add(-1)

	created, err := s.backend.Create(ctx, req)
	if err != nil {
		return model.Snapshot{}, err
	}
	s.logger.Info("Created snapshot %s", created.ID)
	s.invalidate(ctx, CollectionKey)
	return created, nil
}

// UpdateStatus applies a reviewer decision.
func (s *Service) UpdateStatus(ctx context.Context, id string, change model.StatusChange) (model.Snapshot, error) {
	if err := model.ValidateStatusChange(change); err != nil {
		return model.Snapshot{}, err
	}
	s.updating.Add(1)
	defer s.updating.Add(-1)

	updated, err := s.backend.UpdateStatus(ctx, id, change)
	if err != nil {
		return model.Snapshot{}, err
	}
	s.logger.Info("Snapshot %s is now %s", id, change.Status())
	s.invalidate(ctx, CollectionKey, DetailKey(id))
	return updated, nil
}

// Delete removes a snapshot.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.deleting.Add(1)
	defer s.deleting.Add(-1)

	if err := s.backend.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted snapshot %s", id)
	s.invalidate(ctx, CollectionKey, DetailKey(id))
	return nil
}

func (s *Service) IsCreating() bool { return s.creating.Load() > 0 }
func (s *Service) IsUpdating() bool { return s.updating.Load() > 0 }
func (s *Service) IsDeleting() bool { return s.deleting.Load() > 0 }

// invalidate runs after a confirmed write, so a cache failure is logged rather than
// reported as a failed mutation.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.logger.Error("Invalidating %s failed: %v", key, err)
		}
	}
}
