package server

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// memShareStore is an in-memory ShareStore used by handler tests.
type memShareStore struct {
	mu      sync.Mutex
	recs    map[string]*ShareRecord
	failErr error // every method fails with this when set
}

func newMemShareStore() *memShareStore {
	return &memShareStore{recs: make(map[string]*ShareRecord)}
}

func (m *memShareStore) Create(ctx context.Context, rec *ShareRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	cp := *rec
	cp.Files = append([]StoredFile(nil), rec.Files...)
	m.recs[rec.ID] = &cp
	return nil
}

func (m *memShareStore) Get(ctx context.Context, id string) (*ShareRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	rec, ok := m.recs[id]
	if !ok {
		return nil, errShareNotFound
	}
	cp := *rec
	cp.Files = append([]StoredFile(nil), rec.Files...)
	return &cp, nil
}

func (m *memShareStore) IncrementDownloads(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	rec, ok := m.recs[id]
	if !ok {
		return errShareNotFound
	}
	rec.Downloads++
	return nil
}

func (m *memShareStore) downloads(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.recs[id]; ok {
		return rec.Downloads
	}
	return -1
}

func (m *memShareStore) onlyRecord() *ShareRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.recs {
		return rec
	}
	return nil
}

// memBlobStore is an in-memory BlobStore. Individual blobs can be
// rigged to fail on open or to fail partway through a read.
type memBlobStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	putErr   error
	openErr  map[string]error // Get fails for these names
	breakAt  map[string]int   // reads fail after this many bytes
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{
		blobs:   make(map[string][]byte),
		openErr: make(map[string]error),
		breakAt: make(map[string]int),
	}
}

func (m *memBlobStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = data
	return nil
}

func (m *memBlobStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.openErr[name]; ok {
		return nil, err
	}
	data, ok := m.blobs[name]
	if !ok {
		return nil, errFilesMissing
	}
	if n, ok := m.breakAt[name]; ok {
		return io.NopCloser(&brokenReader{data: data, breakAt: n}), nil
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) Stat(ctx context.Context, name string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[name]
	if !ok {
		return 0, false, nil
	}
	return int64(len(data)), true, nil
}

// brokenReader serves data until breakAt bytes, then errors, simulating
// a blob read that dies mid-stream.
type brokenReader struct {
	data    []byte
	pos     int
	breakAt int
}

func (b *brokenReader) Read(p []byte) (int, error) {
	if b.pos >= b.breakAt {
		return 0, io.ErrUnexpectedEOF
	}
	n := copy(p, b.data[b.pos:b.breakAt])
	b.pos += n
	return n, nil
}
