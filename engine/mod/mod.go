// Package mod defines how the worker loads the game modification under test.
//
// Mods register a factory under their name, usually from an init function. The worker resolves the
// configured mod path to a registered name, creates the mod and loads it into the fake game client.
package mod

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/config"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/settings"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/fakes/bigworld"
	"github.com/pkg/errors"
)

// Env is what a mod gets to work with
type Env struct {
	Engine   *bigworld.Engine
	Settings *settings.Store
	Config   config.ModConfig
}

// Mod is a game modification
type Mod interface {
	Load(env *Env) error
	Unload()
}

// Factory creates a fresh mod instance
type Factory func() Mod

var (
	registry     = map[string]Factory{}
	registryLock sync.RWMutex
)

// Register registers a mod factory under name
func Register(name string, factory Factory) {
	registryLock.Lock()
	defer registryLock.Unlock()

	if _, ok := registry[name]; ok {
		gwlog.Fatalf("Register: mod %s already registered", name)
	}
	registry[name] = factory
}

// Registered returns the names of all registered mods, sorted
func Registered() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name returns the mod name of a mod path: its base name without extension
func Name(modPath string) string {
	base := filepath.Base(filepath.ToSlash(modPath))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SettingsPath returns the path of the mod's settings file in iniDir
func SettingsPath(iniDir string, modPath string) string {
	return filepath.Join(iniDir, Name(modPath)+".ini")
}

// Resolve creates the mod registered for modPath
func Resolve(modPath string) (Mod, error) {
	name := Name(modPath)

	registryLock.RLock()
	factory := registry[name]
	registryLock.RUnlock()

	if factory == nil {
		return nil, errors.Errorf("mod %s is not registered, registered mods: %s", name, strings.Join(Registered(), ", "))
	}
	return factory(), nil
}
