package repositories

import "errors"

var (
	// ErrNotFound is returned when a record with the requested ID does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrPersistence is returned when a registry cannot be written back to storage.
	ErrPersistence = errors.New("persistence failure")
	// ErrCorruptState is returned when a stored value cannot be decoded.
	ErrCorruptState = errors.New("stored state is corrupt")
)

// KVStore is the local key-value medium every registry is persisted in.
type KVStore interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(key string) error
}
