// Package media implements audio capture for voice notes: a recorder state
// machine over a capture device, an in-memory blob store handing out
// revocable URLs, and waveform peak extraction for the review UI.
package media

import (
	"sync"

	"github.com/google/uuid"
)

// BlobStore holds recorded data under revocable URLs. Revoking releases
// the bytes; every path out of a recording session revokes what it
// allocated so abandoned takes do not pile up.
type BlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewBlobStore creates an empty store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: map[string][]byte{}}
}

// Put stores the data and returns its URL.
func (s *BlobStore) Put(data []byte) string {
	url := "blob:laguz/" + uuid.NewString()
	s.mu.Lock()
	s.blobs[url] = data
	s.mu.Unlock()
	return url
}

// Get returns the data behind a URL.
func (s *BlobStore) Get(url string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[url]
	return data, ok
}

// Revoke releases a URL. Revoking an unknown or already revoked URL is a
// no-op.
func (s *BlobStore) Revoke(url string) {
	s.mu.Lock()
	delete(s.blobs, url)
	s.mu.Unlock()
}

// Active returns the number of live blobs.
func (s *BlobStore) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
