// Package settings is the mod's persisted settings file: named values grouped by section.
//
// A Store is owned by one worker run; the controller edits the same file and asks the worker to Sync.
package settings

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/go-ini/ini"
	"github.com/pkg/errors"
)

// Store reads and writes one ini settings file
type Store struct {
	path string

	lock      sync.RWMutex
	file      *ini.File
	listeners []func()
}

// Open loads the settings file at path. A missing file gives an empty store that is created on first Save
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	file, err := ini.LooseLoad(s.path)
	if err != nil {
		return errors.Wrapf(err, "load settings %s", s.path)
	}
	s.lock.Lock()
	s.file = file
	s.lock.Unlock()
	return nil
}

// Path returns the settings file path
func (s *Store) Path() string {
	return s.path
}

// Get returns the value of key in section, or def if it is not set
func (s *Store) Get(section, key, def string) string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sec, err := s.file.GetSection(section)
	if err != nil || !sec.HasKey(key) {
		return def
	}
	return sec.Key(key).String()
}

// GetInt returns the value of key in section as int, or def if it is not set or malformed
func (s *Store) GetInt(section, key string, def int) int {
	v, err := strconv.Atoi(s.Get(section, key, strconv.Itoa(def)))
	if err != nil {
		gwlog.Warnf("settings %s: %s.%s is not an int: %v", s.path, section, key, err)
		return def
	}
	return v
}

// GetBool returns the value of key in section as bool, or def if it is not set or malformed
func (s *Store) GetBool(section, key string, def bool) bool {
	v, err := strconv.ParseBool(s.Get(section, key, strconv.FormatBool(def)))
	if err != nil {
		gwlog.Warnf("settings %s: %s.%s is not a bool: %v", s.path, section, key, err)
		return def
	}
	return v
}

// GetFloat returns the value of key in section as float64, or def if it is not set or malformed
func (s *Store) GetFloat(section, key string, def float64) float64 {
	raw := s.Get(section, key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		gwlog.Warnf("settings %s: %s.%s is not a number: %v", s.path, section, key, err)
		return def
	}
	return v
}

// GetSeconds returns a value given in (fractional) seconds as duration
func (s *Store) GetSeconds(section, key string, def time.Duration) time.Duration {
	return time.Duration(s.GetFloat(section, key, def.Seconds()) * float64(time.Second))
}

// Set changes key in section and saves the file
func (s *Store) Set(section, key, value string) error {
	s.lock.Lock()
	s.file.Section(section).Key(key).SetValue(value)
	s.lock.Unlock()
	return s.Save()
}

// SetAll changes many keys at once and saves the file: section -> key -> value
func (s *Store) SetAll(values map[string]map[string]string) error {
	s.lock.Lock()
	for section, keys := range values {
		sec := s.file.Section(section)
		for key, value := range keys {
			sec.Key(key).SetValue(value)
		}
	}
	s.lock.Unlock()
	return s.Save()
}

// Save writes the settings file
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrap(err, "create settings directory")
	}

	s.lock.RLock()
	defer s.lock.RUnlock()
	return errors.Wrapf(s.file.SaveTo(s.path), "save settings %s", s.path)
}

// Sync reloads the settings file from disk and notifies the listeners
func (s *Store) Sync() error {
	if err := s.load(); err != nil {
		return err
	}

	s.lock.RLock()
	listeners := append([]func(){}, s.listeners...)
	s.lock.RUnlock()

	gwlog.Debugf("settings %s reloaded, notifying %d listeners", s.path, len(listeners))
	for _, cb := range listeners {
		cb()
	}
	return nil
}

// OnSync registers cb to be called after each Sync
func (s *Store) OnSync(cb func()) {
	s.lock.Lock()
	s.listeners = append(s.listeners, cb)
	s.lock.Unlock()
}

// Reset removes the settings file and empties the store
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove settings %s", s.path)
	}
	s.lock.Lock()
	s.file = ini.Empty()
	s.lock.Unlock()
	return nil
}
