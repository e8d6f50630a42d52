package snapshot

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// meta describes the chunk layout of a stored image.
type meta struct {
	Chunks  int       `json:"chunks"`
	Size    int       `json:"size"` // Encoded size in bytes, pre-split
	SavedAt time.Time `json:"savedAt"`
}

func metaKey(key string) string {
	return key + "/meta"
}

func chunkKey(key string, n int) string {
	return fmt.Sprintf("%s/chunk/%06d", key, n)
}

// Save encodes image as base64 text and writes it under key in chunks of at
// most chunkSize bytes, followed by the meta record. Chunks left over from a
// previously larger image are removed, so the stored image is always replaced
// as a whole.
func Save(store Store, key string, image []byte, chunkSize int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("snapshot: invalid chunk size %d", chunkSize)
	}

	encoded := base64.StdEncoding.EncodeToString(image)

	var count int
	for start := 0; start < len(encoded); start += chunkSize {
		end := start + chunkSize
		if end > len(encoded) {
			end = len(encoded)
		}
		if err := store.Set(chunkKey(key, count), []byte(encoded[start:end])); err != nil {
			return fmt.Errorf("snapshot: write chunk %d: %w", count, err)
		}
		count++
	}

	m, err := json.Marshal(meta{Chunks: count, Size: len(encoded), SavedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("snapshot: marshal meta: %w", err)
	}
	if err := store.Set(metaKey(key), m); err != nil {
		return fmt.Errorf("snapshot: write meta: %w", err)
	}

	// Drop stale chunks from a previously larger image. Only an absent key
	// marks the end of the sweep; any other store failure propagates so a
	// transient error cannot leave stale chunks behind unnoticed.
	for n := count; ; n++ {
		_, err := store.Get(chunkKey(key, n))
		if errors.Is(err, ErrKeyNotFound) {
			break
		}
		if err != nil {
			return fmt.Errorf("snapshot: probe stale chunk %d: %w", n, err)
		}
		if err := store.Delete(chunkKey(key, n)); err != nil {
			return fmt.Errorf("snapshot: delete stale chunk %d: %w", n, err)
		}
	}

	return nil
}

// Load reassembles and decodes the image stored under key. A missing meta
// record yields ErrKeyNotFound; a corrupt layout or undecodable payload
// yields a descriptive error.
func Load(store Store, key string) ([]byte, error) {
	raw, err := store.Get(metaKey(key))
	if err != nil {
		return nil, err
	}

	var m meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("snapshot: corrupt meta record: %w", err)
	}

	encoded := make([]byte, 0, m.Size)
	for n := 0; n < m.Chunks; n++ {
		chunk, err := store.Get(chunkKey(key, n))
		if err != nil {
			return nil, fmt.Errorf("snapshot: missing chunk %d of %d: %w", n, m.Chunks, err)
		}
		encoded = append(encoded, chunk...)
	}

	if len(encoded) != m.Size {
		return nil, fmt.Errorf("snapshot: image size mismatch: have %d bytes, meta says %d", len(encoded), m.Size)
	}

	image, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode image: %w", err)
	}
	return image, nil
}
