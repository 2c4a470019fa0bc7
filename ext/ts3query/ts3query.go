// Package ts3query encodes and decodes the line protocol of the TeamSpeak 3 ClientQuery interface.
//
// A server line holds entries separated by '|', an entry holds space separated key=value pairs.
// Every command answer ends with a status line "error id=<n> msg=<text>".
package ts3query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Status ids used by the client query
const (
	STATUS_OK                = 0
	STATUS_COMMAND_NOT_FOUND = 256
	STATUS_INVALID_CLIENT_ID = 512
	STATUS_NOT_CONNECTED     = 1794
)

const (
	// LINE_END terminates server lines
	LINE_END = "\n\r"
	// DEFAULT_PORT is the port the TeamSpeak client listens on for queries
	DEFAULT_PORT = 25639
	// WELCOME is the banner sent on connect
	WELCOME = "TS3 Client" + LINE_END +
		"Welcome to the TeamSpeak 3 ClientQuery interface, type \"help\" for a list of commands and \"help <command>\" for information on a specific command." + LINE_END
)

var (
	escaper = strings.NewReplacer(
		`\`, `\\`, `/`, `\/`, ` `, `\s`, `|`, `\p`,
		"\a", `\a`, "\b", `\b`, "\f", `\f`, "\n", `\n`, "\r", `\r`, "\t", `\t`, "\v", `\v`,
	)
	unescaper = strings.NewReplacer(
		`\\`, `\`, `\/`, `/`, `\s`, ` `, `\p`, `|`,
		`\a`, "\a", `\b`, "\b", `\f`, "\f", `\n`, "\n", `\r`, "\r", `\t`, "\t", `\v`, "\v",
	)
)

// Escape escapes a value for the wire
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverts Escape
func Unescape(s string) string {
	return unescaper.Replace(s)
}

// Entry is one record of a server line, or the arguments of a command
type Entry map[string]string

// Int returns the value of key as int, or def
func (e Entry) Int(key string, def int) int {
	v, err := strconv.Atoi(e[key])
	if err != nil {
		return def
	}
	return v
}

// String formats the entry with keys in sorted order
func (e Entry) String() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if e[k] == "" {
			parts = append(parts, k)
		} else {
			parts = append(parts, k+"="+Escape(e[k]))
		}
	}
	return strings.Join(parts, " ")
}

// ParseEntry parses space separated key=value pairs
func ParseEntry(s string) Entry {
	entry := Entry{}
	for _, field := range strings.Fields(s) {
		if i := strings.IndexByte(field, '='); i >= 0 {
			entry[field[:i]] = Unescape(field[i+1:])
		} else {
			entry[field] = ""
		}
	}
	return entry
}

// ParseEntries parses a line of '|' separated entries
func ParseEntries(line string) []Entry {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil
	}
	var entries []Entry
	for _, part := range strings.Split(line, "|") {
		entries = append(entries, ParseEntry(part))
	}
	return entries
}

// FormatEntries formats entries as one line, without line end
func FormatEntries(entries []Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, "|")
}

// Status is the closing line of a command answer
type Status struct {
	ID  int
	Msg string
}

// OK returns true for a successful command
func (s Status) OK() bool {
	return s.ID == STATUS_OK
}

func (s Status) String() string {
	return fmt.Sprintf("error id=%d msg=%s", s.ID, Escape(s.Msg))
}

func (s Status) Error() string {
	return fmt.Sprintf("client query error %d: %s", s.ID, s.Msg)
}

// ParseStatus parses a status line, ok is false if line is not one
func ParseStatus(line string) (status Status, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "error ") {
		return Status{}, false
	}
	entry := ParseEntry(line[len("error "):])
	return Status{ID: entry.Int("id", -1), Msg: entry["msg"]}, true
}

// IsNotification returns true for lines the server pushes without being asked
func IsNotification(line string) bool {
	return strings.HasPrefix(line, "notify")
}

// ParseCommand splits a line into the command (or notification) name and its arguments
func ParseCommand(line string) (name string, args Entry) {
	line = strings.TrimRight(line, "\r\n")
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i], ParseEntry(line[i+1:])
	}
	return line, Entry{}
}

// FormatCommand formats a command line including the line end clients send
func FormatCommand(name string, args Entry) string {
	if len(args) == 0 {
		return name + "\n"
	}
	return name + " " + args.String() + "\n"
}
