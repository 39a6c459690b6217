// Package session keeps covers that were uploaded ahead of their message.
//
// Embedding can be split in two requests: the client uploads the cover,
// receives a session id, and later posts the message to that id. Sessions
// live in bigcache and expire after the configured TTL.
package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/google/uuid"

	"picstego/stego"
)

// ErrNotFound is returned for unknown, consumed or expired sessions.
var ErrNotFound = errors.New("session not found or expired")

// entry layout: width(4) height(4) nameLen(4) name pix
const headerBytes = 12

// Session is a cover waiting for its message.
type Session struct {
	ID       string
	Filename string
	Cover    *stego.PixelBuffer
}

type Options struct {
	TTL       time.Duration
	MaxSizeMB int
}

type Store struct {
	cache *bigcache.BigCache
	ttl   time.Duration
}

func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}

	cfg := bigcache.DefaultConfig(opts.TTL)
	cfg.Shards = 8
	cfg.MaxEntriesInWindow = 64
	cfg.MaxEntrySize = 16 << 10
	cfg.HardMaxCacheSize = opts.MaxSizeMB
	cfg.CleanWindow = time.Second

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &Store{cache: cache, ttl: opts.TTL}, nil
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create stores cover and returns the new session id. The store keeps its
// own copy of the pixels.
func (s *Store) Create(cover *stego.PixelBuffer, filename string) (string, error) {
	id := uuid.New().String()
	if err := s.cache.Set(id, marshal(cover, filename)); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return id, nil
}

func (s *Store) Get(id string) (*Session, error) {
	data, err := s.cache.Get(id)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	sess, err := unmarshal(data)
	if err != nil {
		return nil, err
	}
	sess.ID = id
	return sess, nil
}

// Take returns the session and removes it, so a cover is used once.
func (s *Store) Take(id string) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.Delete(id); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return sess, nil
}

func (s *Store) Delete(id string) error {
	if err := s.cache.Delete(id); err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) Close() error {
	return s.cache.Close()
}

func marshal(cover *stego.PixelBuffer, filename string) []byte {
	name := []byte(filename)
	data := make([]byte, headerBytes, headerBytes+len(name)+len(cover.Pix))
	binary.BigEndian.PutUint32(data[0:4], uint32(cover.Width))
	binary.BigEndian.PutUint32(data[4:8], uint32(cover.Height))
	binary.BigEndian.PutUint32(data[8:12], uint32(len(name)))
	data = append(data, name...)
	return append(data, cover.Pix...)
}

func unmarshal(data []byte) (*Session, error) {
	if len(data) < headerBytes {
		return nil, fmt.Errorf("corrupt session entry: %d bytes", len(data))
	}
	w := int(binary.BigEndian.Uint32(data[0:4]))
	h := int(binary.BigEndian.Uint32(data[4:8]))
	nameLen := int(binary.BigEndian.Uint32(data[8:12]))

	rest := data[headerBytes:]
	if nameLen > len(rest) || len(rest)-nameLen != w*h*stego.ChannelsPerPixel {
		return nil, fmt.Errorf("corrupt session entry for %dx%d cover", w, h)
	}

	pix := make([]uint8, len(rest)-nameLen)
	copy(pix, rest[nameLen:])
	return &Session{
		Filename: string(rest[:nameLen]),
		Cover:    &stego.PixelBuffer{Width: w, Height: h, Pix: pix},
	}, nil
}
