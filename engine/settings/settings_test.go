package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func openTestStore(t *testing.T) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "tessu_mod.ini"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestGetDefaults(t *testing.T) {
	s := openTestStore(t)
	assert.Equal(t, "127.0.0.1", s.Get("TSClientQueryService", "host", "127.0.0.1"))
	assert.Equal(t, 25639, s.GetInt("TSClientQueryService", "port", 25639))
	assert.Equal(t, true, s.GetBool("General", "enabled", true))
	assert.Equal(t, time.Second, s.GetSeconds("TSClientQueryService", "polling_interval", time.Second))
}

func TestSetPersists(t *testing.T) {
	s := openTestStore(t)
	assert.Equal(t, nil, s.Set("General", "speak_stop_delay", "0"))
	assert.Equal(t, nil, s.SetAll(map[string]map[string]string{
		"TSClientQueryService": {"port": "30000", "polling_interval": "0.5"},
	}))

	reopened, err := Open(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "0", reopened.Get("General", "speak_stop_delay", ""))
	assert.Equal(t, 30000, reopened.GetInt("TSClientQueryService", "port", 0))
	assert.Equal(t, 500*time.Millisecond, reopened.GetSeconds("TSClientQueryService", "polling_interval", 0))
}

func TestMalformedValues(t *testing.T) {
	s := openTestStore(t)
	s.Set("General", "log_level", "loud")
	assert.Equal(t, 1, s.GetInt("General", "log_level", 1))
	assert.Equal(t, false, s.GetBool("General", "log_level", false))
	assert.Equal(t, 2.5, s.GetFloat("General", "log_level", 2.5))
}

func TestSyncNotifiesListeners(t *testing.T) {
	s := openTestStore(t)
	s.Set("General", "speak_stop_delay", "100")

	other, err := Open(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	synced := 0
	other.OnSync(func() { synced++ })

	s.Set("General", "speak_stop_delay", "0")
	assert.Equal(t, "100", other.Get("General", "speak_stop_delay", ""))
	assert.Equal(t, nil, other.Sync())
	assert.Equal(t, "0", other.Get("General", "speak_stop_delay", ""))
	assert.Equal(t, 1, synced)
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	s.Set("General", "speak_stop_delay", "0")
	assert.Equal(t, nil, s.Reset())

	_, err := os.Stat(s.Path())
	assert.T(t, os.IsNotExist(err), "settings file should be removed")
	assert.Equal(t, "", s.Get("General", "speak_stop_delay", ""))
	assert.Equal(t, nil, s.Reset())
}
