package mod

import (
	"path/filepath"
	"testing"

	"github.com/bmizerany/assert"
)

type testMod struct {
	loaded bool
}

func (m *testMod) Load(env *Env) error {
	m.loaded = true
	return nil
}

func (m *testMod) Unload() {
	m.loaded = false
}

func init() {
	Register("test_mod", func() Mod { return &testMod{} })
}

func TestName(t *testing.T) {
	assert.Equal(t, "tessu_mod", Name("mods/tessu_mod"))
	assert.Equal(t, "tessu_mod", Name("scripts/client/mods/tessu_mod.pyc"))
	assert.Equal(t, "tessu_mod", Name("tessu_mod"))
}

func TestSettingsPath(t *testing.T) {
	assert.Equal(t, filepath.Join("ini", "tessu_mod.ini"), SettingsPath("ini", "mods/tessu_mod.py"))
}

func TestResolve(t *testing.T) {
	m, err := Resolve("mods/test_mod")
	assert.Equal(t, nil, err)
	assert.T(t, m != nil)
	assert.Equal(t, nil, m.Load(&Env{}))
	assert.T(t, m.(*testMod).loaded)

	other, _ := Resolve("test_mod.py")
	assert.T(t, other != m, "every Resolve creates a new instance")

	_, err = Resolve("mods/missing_mod")
	assert.NotEqual(t, nil, err)
	assert.T(t, contains(Registered(), "test_mod"))
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
