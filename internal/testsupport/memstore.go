// Package testsupport provides in-memory stand-ins for the Mongo-backed
// repositories and the blob store, honoring the same contracts (set-union
// chunk recording, compare-and-set claims, latest-revision blob reads).
package testsupport

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/redevc/audio-service/internal/models"
	"github.com/redevc/audio-service/internal/storage"
	"github.com/redevc/audio-service/internal/utils"
)

type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.UploadSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]*models.UploadSession{}}
}

func (s *SessionStore) Create(_ context.Context, sess *models.UploadSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.SessionID] = &cp
	return nil
}

func (s *SessionStore) GetBySessionID(_ context.Context, sessionID string) (*models.UploadSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *sess
	cp.ReceivedChunks = append([]int(nil), sess.ReceivedChunks...)
	return &cp, nil
}

func (s *SessionStore) AddReceivedChunk(_ context.Context, sessionID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	for _, got := range sess.ReceivedChunks {
		if got == index {
			return nil
		}
	}
	sess.ReceivedChunks = append(sess.ReceivedChunks, index)
	sess.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *SessionStore) LinkAsset(_ context.Context, sessionID, assetID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	now := time.Now().UTC()
	sess.Status = models.SessionQueued
	sess.AssetID = &assetID
	sess.CompletedAt = &now
	sess.UpdatedAt = now
	sess.ExpiresAt = expiresAt
	return nil
}

func (s *SessionStore) SetStatus(_ context.Context, sessionID, status string, expiresAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	sess.Status = status
	sess.UpdatedAt = time.Now().UTC()
	if expiresAt != nil {
		sess.ExpiresAt = *expiresAt
	}
	return nil
}

func (s *SessionStore) SetStatusByAssetID(_ context.Context, assetID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.AssetID != nil && *sess.AssetID == assetID {
			sess.Status = status
			sess.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

type AssetStore struct {
	mu     sync.Mutex
	assets map[string]*models.AudioAsset
	order  []string
}

func NewAssetStore() *AssetStore {
	return &AssetStore{assets: map[string]*models.AudioAsset{}}
}

func (s *AssetStore) Create(_ context.Context, a *models.AudioAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.assets[a.AssetID] = &cp
	s.order = append(s.order, a.AssetID)
	return nil
}

func (s *AssetStore) GetByAssetID(_ context.Context, assetID string) (*models.AudioAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[assetID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// ClaimNextQueued holds the store lock across find-and-flip, giving the same
// at-most-one-claimant guarantee the conditional Mongo update provides.
func (s *AssetStore) ClaimNextQueued(_ context.Context) (*models.AudioAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		a := s.assets[id]
		if a.Status != models.AssetQueued {
			continue
		}
		a.Status = models.AssetProcessing
		a.ErrorMessage = ""
		a.UpdatedAt = time.Now().UTC()
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (s *AssetStore) MarkReady(_ context.Context, assetID string, artifact models.AssetStorage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[assetID]
	if !ok {
		return utils.ErrNotFound
	}
	a.Status = models.AssetReady
	a.Storage = &artifact
	a.ErrorMessage = ""
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *AssetStore) MarkFailed(_ context.Context, assetID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[assetID]
	if !ok {
		return utils.ErrNotFound
	}
	a.Status = models.AssetFailed
	a.ErrorMessage = message
	a.UpdatedAt = time.Now().UTC()
	return nil
}

type memBlob struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

// BlobStore keeps every uploaded revision; reads resolve the newest one.
type BlobStore struct {
	mu    sync.Mutex
	blobs map[string][]memBlob
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: map[string][]memBlob{}}
}

var _ storage.BlobStore = (*BlobStore)(nil)

func (s *BlobStore) Upload(_ context.Context, name, contentType string, metadata map[string]string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = append(s.blobs[name], memBlob{data: data, contentType: contentType, metadata: metadata})
	return int64(len(data)), nil
}

func (s *BlobStore) Stat(_ context.Context, name string) (storage.BlobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	revs, ok := s.blobs[name]
	if !ok || len(revs) == 0 {
		return storage.BlobInfo{}, utils.ErrNotFound
	}
	latest := revs[len(revs)-1]
	return storage.BlobInfo{Size: int64(len(latest.data)), ContentType: latest.contentType}, nil
}

func (s *BlobStore) OpenRange(_ context.Context, name string, start, length int64) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	revs, ok := s.blobs[name]
	if !ok || len(revs) == 0 {
		return nil, utils.ErrNotFound
	}
	data := revs[len(revs)-1].data
	if start < 0 || start > int64(len(data)) {
		return nil, utils.ErrNotFound
	}
	end := start + length
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return io.NopCloser(bytes.NewReader(data[start:end])), nil
}

// Bytes returns the newest revision of a blob for assertions.
func (s *BlobStore) Bytes(name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	revs := s.blobs[name]
	if len(revs) == 0 {
		return nil
	}
	return append([]byte(nil), revs[len(revs)-1].data...)
}
