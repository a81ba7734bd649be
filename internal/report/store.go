package report

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type entry[T any] struct {
	Data      T         `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum"`
}

// Store keeps one JSON document per key in a directory. Entries whose
// checksum no longer matches their data are treated as missing.
type Store[T any] struct {
	dir string
}

func NewStore[T any](dir string) *Store[T] {
	return &Store[T]{dir: dir}
}

func (s *Store[T]) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store[T]) Get(key string) (T, bool) {
	var zero T

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return zero, false
	}

	var e entry[T]
	if err := json.Unmarshal(data, &e); err != nil {
		return zero, false
	}
	if e.Checksum != checksum(e.Data) {
		return zero, false
	}
	return e.Data, true
}

func (s *Store[T]) Set(key string, data T) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(entry[T]{
		Data:      data,
		CreatedAt: time.Now(),
		Checksum:  checksum(data),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	file := s.path(key)
	tmpFile := file + ".tmp"
	if err := os.WriteFile(tmpFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp report file: %w", err)
	}
	if err := os.Rename(tmpFile, file); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp report file: %w", err)
	}
	return nil
}

func checksum[T any](data T) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return hex.EncodeToString(hash[:])
}
