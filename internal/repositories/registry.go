package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
)

// envelope is the persisted shape of every registry value.
// Values written before versioning existed are bare JSON and count as version 0.
type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// migration upgrades registry data from one version to the next.
type migration func(data json.RawMessage) (json.RawMessage, error)

// registry stores one JSON value of type T under a single key.
type registry[T any] struct {
	kv         KVStore
	key        string
	version    int
	migrations map[int]migration // keyed by source version
}

// load reads and decodes the value, running migrations up to the current version.
// A migrated value is written back once so later reads skip the migration.
// A missing key yields the zero value.
func (r *registry[T]) load() (T, error) {
	var value T

	raw, found, err := r.kv.Get(r.key)
	if err != nil {
		return value, err
	}
	if !found || len(bytes.TrimSpace([]byte(raw))) == 0 {
		return value, nil
	}

	version, data, err := decodeEnvelope([]byte(raw))
	if err != nil {
		return value, fmt.Errorf("%w: key %s: %v", ErrCorruptState, r.key, err)
	}
	if version > r.version {
		return value, fmt.Errorf("%w: key %s has version %d, newest known is %d", ErrCorruptState, r.key, version, r.version)
	}
	for v := version; v < r.version; v++ {
		migrate, ok := r.migrations[v]
		if !ok {
			return value, fmt.Errorf("%w: no migration for key %s from version %d", ErrCorruptState, r.key, v)
		}
		if data, err = migrate(data); err != nil {
			return value, fmt.Errorf("%w: migrating key %s from version %d: %v", ErrCorruptState, r.key, v, err)
		}
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("%w: key %s: %v", ErrCorruptState, r.key, err)
	}

	if version < r.version {
		if err := r.save(value); err != nil {
			log.Printf("Warning: migrated key %s from version %d but could not store it: %v", r.key, version, err)
		}
	}
	return value, nil
}

// save writes value at the current version.
func (r *registry[T]) save(value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: failed to encode key %s: %v", ErrPersistence, r.key, err)
	}
	body, err := json.Marshal(envelope{Version: r.version, Data: data})
	if err != nil {
		return fmt.Errorf("%w: failed to encode envelope for key %s: %v", ErrPersistence, r.key, err)
	}
	if err := r.kv.Set(r.key, string(body)); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// clear removes the key entirely.
func (r *registry[T]) clear() error {
	if err := r.kv.Delete(r.key); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func decodeEnvelope(raw []byte) (int, json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		return 0, nil, fmt.Errorf("invalid JSON")
	}
	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Version > 0 {
			if len(env.Data) == 0 {
				env.Data = json.RawMessage("null")
			}
			return env.Version, env.Data, nil
		}
	}
	return 0, json.RawMessage(trimmed), nil
}
