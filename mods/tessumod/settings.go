package tessumod

import (
	"time"

	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/consts"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/settings"
	"github.com/WorldOfTanksMods/wot-teamspeak-mod/ext/ts3query"
)

// Log levels of the General.log_level setting
const (
	LOG_LEVEL_DEBUG = iota
	LOG_LEVEL_INFO
	LOG_LEVEL_WARNING
	LOG_LEVEL_ERROR
)

// Settings sections and keys
const (
	SECTION_GENERAL       = "General"
	SECTION_CLIENT_QUERY  = "TSClientQueryService"
	KEY_LOG_LEVEL         = "log_level"
	KEY_SPEAK_STOP_DELAY  = "speak_stop_delay"
	KEY_HOST              = "host"
	KEY_PORT              = "port"
	KEY_POLLING_INTERVAL  = "polling_interval"
	DEFAULT_HOST          = "127.0.0.1"
	DEFAULT_STOP_DELAY    = time.Second
	_MIN_POLLING_INTERVAL = time.Millisecond * 10
)

type modSettings struct {
	logLevel        int
	speakStopDelay  time.Duration
	host            string
	port            int
	pollingInterval time.Duration
}

func readSettings(store *settings.Store) modSettings {
	s := modSettings{
		logLevel:        store.GetInt(SECTION_GENERAL, KEY_LOG_LEVEL, LOG_LEVEL_INFO),
		speakStopDelay:  store.GetSeconds(SECTION_GENERAL, KEY_SPEAK_STOP_DELAY, DEFAULT_STOP_DELAY),
		host:            store.Get(SECTION_CLIENT_QUERY, KEY_HOST, DEFAULT_HOST),
		port:            store.GetInt(SECTION_CLIENT_QUERY, KEY_PORT, ts3query.DEFAULT_PORT),
		pollingInterval: store.GetSeconds(SECTION_CLIENT_QUERY, KEY_POLLING_INTERVAL, consts.MOD_POLLING_INTERVAL),
	}
	if s.pollingInterval < _MIN_POLLING_INTERVAL {
		s.pollingInterval = _MIN_POLLING_INTERVAL
	}
	return s
}
