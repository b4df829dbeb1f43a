package objectstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
)

// Object is a stored object in a MemoryBucket.
type Object struct {
	Body        []byte
	ContentType string
}

// MemoryBucket is an in-memory Bucket. Safe for concurrent use.
type MemoryBucket struct {
	mu      sync.Mutex
	objects map[string]Object
	puts    int
}

// NewMemoryBucket creates an empty bucket holding the given keys.
func NewMemoryBucket(keys ...string) *MemoryBucket {
	b := &MemoryBucket{objects: make(map[string]Object)}
	for _, k := range keys {
		b.objects[k] = Object{}
	}
	return b
}

func (b *MemoryBucket) PutObject(_ context.Context, key string, body []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = Object{Body: append([]byte(nil), body...), ContentType: contentType}
	b.puts++
	return nil
}

func (b *MemoryBucket) List(_ context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *MemoryBucket) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *MemoryBucket) ETag(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[key]
	if !ok {
		return "", false, nil
	}
	sum := md5.Sum(obj.Body)
	return hex.EncodeToString(sum[:]), true, nil
}

// Get returns the object stored under key.
func (b *MemoryBucket) Get(key string) (Object, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[key]
	return obj, ok
}

// Puts returns the number of PutObject calls.
func (b *MemoryBucket) Puts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.puts
}
