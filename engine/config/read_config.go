package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"
	"github.com/caarlos0/env/v11"
	"github.com/go-ini/ini"
	"github.com/pkg/errors"
)

const (
	_DEFAULT_CONFIG_FILE = "futes.ini"
	_DEFAULT_LOG_LEVEL   = "debug"
	_DEFAULT_MOD_PATH    = "mods/tessu_mod"
	_DEFAULT_PACKER      = "msgpack"

	_SETTINGS_SECTION_PREFIX = "settings."
)

var (
	configFilePath = _DEFAULT_CONFIG_FILE
	futesConfig    *FutesConfig
	configLock     sync.Mutex
)

// RunnerConfig defines fields of the controller side
type RunnerConfig struct {
	WorkerCommand []string // executable and arguments of the worker, the running executable by default
	CallTimeout   time.Duration
	PollInterval  time.Duration
	StopTimeout   time.Duration
	LogLevel      string
}

// ModConfig holds the overrides installed into the mod before it is loaded
type ModConfig struct {
	IniDirPath            string
	RetryTimeout          time.Duration
	UnregisterWaitTimeout time.Duration
}

// WorkerConfig is sent to the worker process as its first message
type WorkerConfig struct {
	ModPath      string
	TickInterval time.Duration
	PollTimeout  time.Duration
	Packer       string
	LogLevel     string
	LogFile      string
	LogStderr    bool
	CoverageDir  string
	PprofPort    int // pprof http server of the worker on 127.0.0.1, 0 disables it
	Mod          ModConfig
	Settings     map[string]map[string]string // seeded into the fresh settings file: section -> key -> value
}

// FutesConfig defines the total harness config file structure
type FutesConfig struct {
	Runner RunnerConfig
	Worker WorkerConfig
}

type envOverrides struct {
	LogLevel     string        `env:"FUTES_LOG_LEVEL"`
	CallTimeout  time.Duration `env:"FUTES_CALL_TIMEOUT"`
	TickInterval time.Duration `env:"FUTES_TICK_INTERVAL"`
	PollTimeout  time.Duration `env:"FUTES_POLL_TIMEOUT"`
	CoverageDir  string        `env:"FUTES_COVERAGE_DIR"`
	Packer       string        `env:"FUTES_PACKER"`
	IniDirPath   string        `env:"FUTES_INI_DIR"`
}

// SetConfigFile sets the config file path (futes.ini by default)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// Get returns the harness config read from the config file
func Get() *FutesConfig {
	configLock.Lock()
	defer configLock.Unlock()
	if futesConfig == nil {
		cfg, err := Load(configFilePath)
		if err != nil {
			gwlog.Fatalf("read config %s failed: %v", configFilePath, err)
		}
		futesConfig = cfg
	}
	return futesConfig
}

// Reload forces the config file to be read again
func Reload() *FutesConfig {
	configLock.Lock()
	futesConfig = nil
	configLock.Unlock()

	return Get()
}

// Default returns the config used when no config file exists
func Default() *FutesConfig {
	return &FutesConfig{
		Runner: RunnerConfig{
			CallTimeout:  consts.RUNNER_CALL_TIMEOUT,
			PollInterval: consts.RUNNER_POLL_INTERVAL,
			StopTimeout:  consts.RUNNER_STOP_TIMEOUT,
			LogLevel:     _DEFAULT_LOG_LEVEL,
		},
		Worker: WorkerConfig{
			ModPath:      _DEFAULT_MOD_PATH,
			TickInterval: consts.WORKER_TICK_INTERVAL,
			PollTimeout:  consts.WORKER_POLL_TIMEOUT,
			Packer:       _DEFAULT_PACKER,
			LogLevel:     _DEFAULT_LOG_LEVEL,
			LogStderr:    true,
			Mod: ModConfig{
				IniDirPath:            filepath.Join(os.TempDir(), "futes", "ini"),
				RetryTimeout:          consts.MOD_RETRY_TIMEOUT,
				UnregisterWaitTimeout: consts.MOD_UNREGISTER_WAIT_TIMEOUT,
			},
			Settings: map[string]map[string]string{},
		},
	}
}

// Load reads the config file at path on top of Default, then applies FUTES_* environment overrides.
// A missing file is not an error.
func Load(path string) (*FutesConfig, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		gwlog.Infof("Using config file: %s", path)
		iniFile, err := ini.Load(path)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
		if err := readFutesConfig(iniFile, cfg); err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFutesConfig(iniFile *ini.File, cfg *FutesConfig) error {
	for _, sec := range iniFile.Sections() {
		secName := sec.Name()
		if secName == ini.DefaultSection {
			continue
		}

		var err error
		lowerName := strings.ToLower(secName)
		switch {
		case lowerName == "runner":
			err = readRunnerConfig(sec, &cfg.Runner)
		case lowerName == "worker":
			err = readWorkerConfig(sec, &cfg.Worker)
		case lowerName == "mod":
			err = readModConfig(sec, &cfg.Worker)
		case strings.HasPrefix(lowerName, _SETTINGS_SECTION_PREFIX):
			readSettingsSection(sec, secName[len(_SETTINGS_SECTION_PREFIX):], &cfg.Worker)
		default:
			err = errors.Errorf("unknown section: %s", secName)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func readRunnerConfig(sec *ini.Section, rc *RunnerConfig) error {
	for _, key := range sec.Keys() {
		switch strings.ToLower(key.Name()) {
		case "worker_command":
			rc.WorkerCommand = strings.Fields(key.String())
		case "call_timeout":
			rc.CallTimeout = key.MustDuration(rc.CallTimeout)
		case "poll_interval":
			rc.PollInterval = key.MustDuration(rc.PollInterval)
		case "stop_timeout":
			rc.StopTimeout = key.MustDuration(rc.StopTimeout)
		case "log_level":
			rc.LogLevel = key.MustString(rc.LogLevel)
		default:
			return errors.Errorf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
	return nil
}

func readWorkerConfig(sec *ini.Section, wc *WorkerConfig) error {
	for _, key := range sec.Keys() {
		switch strings.ToLower(key.Name()) {
		case "tick_interval":
			wc.TickInterval = key.MustDuration(wc.TickInterval)
		case "poll_timeout":
			wc.PollTimeout = key.MustDuration(wc.PollTimeout)
		case "packer":
			wc.Packer = key.MustString(wc.Packer)
		case "log_level":
			wc.LogLevel = key.MustString(wc.LogLevel)
		case "log_file":
			wc.LogFile = key.MustString(wc.LogFile)
		case "log_stderr":
			wc.LogStderr = key.MustBool(wc.LogStderr)
		case "coverage_dir":
			wc.CoverageDir = key.MustString(wc.CoverageDir)
		case "pprof_port":
			wc.PprofPort = key.MustInt(wc.PprofPort)
		default:
			return errors.Errorf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
	return nil
}

func readModConfig(sec *ini.Section, wc *WorkerConfig) error {
	for _, key := range sec.Keys() {
		switch strings.ToLower(key.Name()) {
		case "path":
			wc.ModPath = key.MustString(wc.ModPath)
		case "ini_dir":
			wc.Mod.IniDirPath = key.MustString(wc.Mod.IniDirPath)
		case "retry_timeout":
			wc.Mod.RetryTimeout = key.MustDuration(wc.Mod.RetryTimeout)
		case "unregister_wait_timeout":
			wc.Mod.UnregisterWaitTimeout = key.MustDuration(wc.Mod.UnregisterWaitTimeout)
		default:
			return errors.Errorf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
	return nil
}

// settings sections keep the case of their names, the mod reads them case sensitively
func readSettingsSection(sec *ini.Section, section string, wc *WorkerConfig) {
	values := wc.Settings[section]
	if values == nil {
		values = map[string]string{}
		wc.Settings[section] = values
	}
	for _, key := range sec.Keys() {
		values[key.Name()] = key.String()
	}
}

func applyEnv(cfg *FutesConfig) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return errors.Wrap(err, "parse env")
	}

	if ov.LogLevel != "" {
		cfg.Runner.LogLevel = ov.LogLevel
		cfg.Worker.LogLevel = ov.LogLevel
	}
	if ov.CallTimeout != 0 {
		cfg.Runner.CallTimeout = ov.CallTimeout
	}
	if ov.TickInterval != 0 {
		cfg.Worker.TickInterval = ov.TickInterval
	}
	if ov.PollTimeout != 0 {
		cfg.Worker.PollTimeout = ov.PollTimeout
	}
	if ov.CoverageDir != "" {
		cfg.Worker.CoverageDir = ov.CoverageDir
	}
	if ov.Packer != "" {
		cfg.Worker.Packer = ov.Packer
	}
	if ov.IniDirPath != "" {
		cfg.Worker.Mod.IniDirPath = ov.IniDirPath
	}
	return nil
}

func validateConfig(cfg *FutesConfig) error {
	if cfg.Worker.ModPath == "" {
		return errors.New("mod path is not set")
	}
	if cfg.Worker.Mod.IniDirPath == "" {
		return errors.New("mod ini_dir is not set")
	}
	if cfg.Worker.TickInterval <= 0 {
		return errors.Errorf("invalid tick_interval: %s", cfg.Worker.TickInterval)
	}
	if cfg.Worker.PollTimeout <= 0 {
		return errors.Errorf("invalid poll_timeout: %s", cfg.Worker.PollTimeout)
	}
	if cfg.Runner.StopTimeout <= 0 {
		return errors.Errorf("invalid stop_timeout: %s", cfg.Runner.StopTimeout)
	}
	if cfg.Runner.PollInterval < 0 || cfg.Runner.CallTimeout < 0 {
		return errors.New("runner intervals must not be negative")
	}
	return nil
}

// DumpPretty format config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}
