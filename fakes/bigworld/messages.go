package bigworld

import "github.com/WorldOfTanksMods/wot-teamspeak-mod/engine/gwlog"

// SystemMessages is the notification center
type SystemMessages struct {
	messages []string
}

// Push shows a message in the notification center
func (sm *SystemMessages) Push(msg string) {
	gwlog.Debugf("bigworld: system message: %s", msg)
	sm.messages = append(sm.messages, msg)
}

// Has returns true if exactly msg was shown
func (sm *SystemMessages) Has(msg string) bool {
	for _, m := range sm.messages {
		if m == msg {
			return true
		}
	}
	return false
}

// Messages returns all shown messages, oldest first
func (sm *SystemMessages) Messages() []string {
	return append([]string(nil), sm.messages...)
}

// LogEntry is one line of the client's debug log
type LogEntry struct {
	Level   string
	Message string
}

// Log levels of the debug log
const (
	LOG_DEBUG   = "DEBUG"
	LOG_NOTE    = "NOTE"
	LOG_WARNING = "WARNING"
	LOG_ERROR   = "ERROR"
)

// DebugLog collects the lines written through the client's debug_utils
type DebugLog struct {
	entries []LogEntry
}

// Write appends a line
func (dl *DebugLog) Write(level, msg string) {
	gwlog.Debugf("bigworld: [%s] %s", level, msg)
	dl.entries = append(dl.entries, LogEntry{Level: level, Message: msg})
}

func (dl *DebugLog) Debug(msg string)   { dl.Write(LOG_DEBUG, msg) }
func (dl *DebugLog) Note(msg string)    { dl.Write(LOG_NOTE, msg) }
func (dl *DebugLog) Warning(msg string) { dl.Write(LOG_WARNING, msg) }
func (dl *DebugLog) Error(msg string)   { dl.Write(LOG_ERROR, msg) }

// Len returns the number of lines
func (dl *DebugLog) Len() int {
	return len(dl.entries)
}

// At returns the line at index
func (dl *DebugLog) At(index int) LogEntry {
	return dl.entries[index]
}

// Entries returns a copy of all lines
func (dl *DebugLog) Entries() []LogEntry {
	return append([]LogEntry(nil), dl.entries...)
}
