package robot

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Event is one log line emitted by the robot.
type Event struct {
	Time      time.Time
	Level     zerolog.Level
	Component string
	Message   string
	Error     string
	Fields    map[string]interface{} // everything else on the line
	Raw       string
}

// IsConsole reports whether the event is the result of a console command.
func (e Event) IsConsole() bool { return e.Component == "console" }

// Failed reports whether the event is an error-level line.
func (e Event) Failed() bool { return e.Level >= zerolog.ErrorLevel && e.Level <= zerolog.PanicLevel }

// Int returns a numeric field, or false when missing.
func (e Event) Int(key string) (int64, bool) {
	f, ok := e.Fields[key].(float64)
	return int64(f), ok
}

// String returns a string field, or "".
func (e Event) String(key string) string {
	s, _ := e.Fields[key].(string)
	return s
}

// ParseEvent decodes a zerolog JSON line. Anything that is not a JSON object,
// such as ESP32 ROM boot chatter, becomes a no-level event carrying the text.
func ParseEvent(line string) Event {
	line = strings.TrimRight(line, "\r\n")
	ev := Event{Raw: line, Level: zerolog.NoLevel}

	var m map[string]interface{}
	if !strings.HasPrefix(line, "{") || json.Unmarshal([]byte(line), &m) != nil {
		ev.Message = line
		return ev
	}

	if s, ok := m[zerolog.LevelFieldName].(string); ok {
		if lvl, err := zerolog.ParseLevel(s); err == nil {
			ev.Level = lvl
		}
	}
	if s, ok := m[zerolog.TimestampFieldName].(string); ok {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			ev.Time = ts
		}
	}
	ev.Component, _ = m["component"].(string)
	ev.Message, _ = m[zerolog.MessageFieldName].(string)
	ev.Error, _ = m[zerolog.ErrorFieldName].(string)

	for _, k := range []string{zerolog.LevelFieldName, zerolog.TimestampFieldName, zerolog.MessageFieldName, zerolog.ErrorFieldName, "component"} {
		delete(m, k)
	}
	ev.Fields = m
	return ev
}
