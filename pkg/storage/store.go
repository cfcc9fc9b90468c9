/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: store.go
Description: Configuration store for the Kestrel inference engine. Persists one JSON
document per vendor configuration under a configuration directory, named by id, with a
mutex-guarded in-memory cache. The cache is unbounded and process-lifetime scoped.
Undeserializable documents are logged and treated as soft not-found, never fatal.
*/

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kleascm/kestrel-hl7/pkg/vendorcfg"
)

// ErrNotFound is returned when no configuration exists for an id. Corrupt
// documents surface as not-found too; the distinction lives in the logs.
var ErrNotFound = errors.New("configuration not found")

const documentExtension = ".json"

// FileStore persists vendor configurations as JSON documents in a directory.
// Safe for concurrent use.
type FileStore struct {
	dir    string
	logger *logrus.Logger

	mu    sync.RWMutex
	cache map[string]*vendorcfg.VendorConfiguration
}

// NewFileStore creates a store rooted at dir, creating the directory when
// missing. A nil logger falls back to the logrus standard logger.
func NewFileStore(dir string, logger *logrus.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileStore{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]*vendorcfg.VendorConfiguration),
	}, nil
}

// Save upserts a configuration document and refreshes the cache.
func (s *FileStore) Save(ctx context.Context, cfg *vendorcfg.VendorConfiguration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.ConfigurationID == "" {
		return fmt.Errorf("configuration has no id")
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration %s: %w", cfg.ConfigurationID, err)
	}
	if err := os.WriteFile(s.documentPath(cfg.ConfigurationID), data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration %s: %w", cfg.ConfigurationID, err)
	}

	s.mu.Lock()
	s.cache[cfg.ConfigurationID] = cfg.Clone()
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"configuration_id": cfg.ConfigurationID,
		"vendor":           cfg.Vendor,
		"message_type":     cfg.MessageType,
	}).Info("Configuration saved")

	return nil
}

// Load returns the configuration for an id, serving from the cache when
// possible. Missing or unreadable documents return ErrNotFound.
func (s *FileStore) Load(ctx context.Context, id string) (*vendorcfg.VendorConfiguration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	cached, hit := s.cache[id]
	s.mu.RUnlock()
	if hit {
		return cached.Clone(), nil
	}

	cfg, err := s.readDocument(s.documentPath(id))
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"configuration_id": id,
			"error":            err.Error(),
		}).Warning("Configuration unreadable, treating as not found")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.mu.Lock()
	s.cache[id] = cfg.Clone()
	s.mu.Unlock()

	return cfg, nil
}

// List scans the configuration directory and returns the configurations
// matching the optional vendor and message-type filters (empty matches all).
// Unreadable documents are logged and skipped.
func (s *FileStore) List(ctx context.Context, vendor, messageType string) ([]*vendorcfg.VendorConfiguration, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration directory: %w", err)
	}

	var configs []*vendorcfg.VendorConfiguration
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), documentExtension) {
			continue
		}

		cfg, err := s.readDocument(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"document": entry.Name(),
				"error":    err.Error(),
			}).Warning("Skipping unreadable configuration document")
			continue
		}

		if vendor != "" && !strings.EqualFold(cfg.Vendor, vendor) {
			continue
		}
		if messageType != "" && !strings.EqualFold(cfg.MessageType, messageType) {
			continue
		}
		configs = append(configs, cfg)
	}

	sort.Slice(configs, func(i, j int) bool {
		if configs[i].Vendor != configs[j].Vendor {
			return configs[i].Vendor < configs[j].Vendor
		}
		return configs[i].ConfigurationID < configs[j].ConfigurationID
	})

	return configs, nil
}

// Delete removes a configuration document and its cache entry. Reports
// whether anything was actually deleted.
func (s *FileStore) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	_, cached := s.cache[id]
	delete(s.cache, id)
	s.mu.Unlock()

	err := os.Remove(s.documentPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return cached, nil
		}
		return false, fmt.Errorf("failed to delete configuration %s: %w", id, err)
	}

	s.logger.WithField("configuration_id", id).Info("Configuration deleted")
	return true, nil
}

// CacheSize reports how many configurations the cache currently holds.
func (s *FileStore) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func (s *FileStore) documentPath(id string) string {
	return filepath.Join(s.dir, id+documentExtension)
}

func (s *FileStore) readDocument(path string) (*vendorcfg.VendorConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg vendorcfg.VendorConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to deserialize configuration document: %w", err)
	}
	return &cfg, nil
}
