package preview

import (
	"sync"

	"photocapture/internal/metrics"

	"github.com/google/uuid"
)

// Handle is a revocable local reference to a captured image.
type Handle struct {
	ID  string
	URL string
}

type blob struct {
	data        []byte
	contentType string
}

// Registry holds captured images in memory and serves them under urlPrefix until revoked.
type Registry struct {
	urlPrefix string
	blobs     map[string]blob
	mu        sync.RWMutex
}

// NewRegistry creates a Registry whose handle URLs start with urlPrefix, e.g. "/previews/".
func NewRegistry(urlPrefix string) *Registry {
	return &Registry{
		urlPrefix: urlPrefix,
		blobs:     make(map[string]blob),
	}
}

// Create registers data and returns its handle.
func (r *Registry) Create(data []byte, contentType string) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.blobs[id] = blob{data: data, contentType: contentType}
	metrics.PreviewHandles.Set(float64(len(r.blobs)))
	return Handle{ID: id, URL: r.urlPrefix + id}
}

// Get returns the blob behind a live handle.
func (r *Registry) Get(id string) (data []byte, contentType string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.blobs[id]
	if !ok {
		return nil, "", false
	}
	return b.data, b.contentType, true
}

// Revoke releases a handle. It reports whether the handle was live.
func (r *Registry) Revoke(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.blobs[id]; !ok {
		return false
	}
	delete(r.blobs, id)
	metrics.PreviewHandles.Set(float64(len(r.blobs)))
	return true
}

// RevokeAll releases every handle and returns how many were live.
func (r *Registry) RevokeAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.blobs)
	r.blobs = make(map[string]blob)
	metrics.PreviewHandles.Set(0)
	return n
}

// Len is the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
