package logx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Format selects the log output format.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

type record struct {
	Level     Level
	Message   string
	Fields    Fields
	Err       error
	Timestamp time.Time
}

// Formatter renders a log record into an output line.
type Formatter interface {
	Format(r *record) []byte
}

type consoleFormatter struct {
	timeFormat string
}

func (f *consoleFormatter) Format(r *record) []byte {
	var b strings.Builder

	b.WriteString(r.Timestamp.Format(f.timeFormat))
	b.WriteString(" [")
	b.WriteString(r.Level.String())
	b.WriteString("] ")
	b.WriteString(r.Message)

	if len(r.Fields) > 0 {
		keys := make([]string, 0, len(r.Fields))
		for k := range r.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, r.Fields[k])
		}
	}
	if r.Err != nil {
		fmt.Fprintf(&b, " error=%q", r.Err.Error())
	}
	b.WriteByte('\n')

	return []byte(b.String())
}

type jsonFormatter struct {
	timeFormat string
}

func (f *jsonFormatter) Format(r *record) []byte {
	payload := make(map[string]interface{}, len(r.Fields)+4)
	for k, v := range r.Fields {
		payload[k] = v
	}
	payload["time"] = r.Timestamp.Format(f.timeFormat)
	payload["level"] = r.Level.String()
	payload["message"] = r.Message
	if r.Err != nil {
		payload["error"] = r.Err.Error()
	}

	line, err := json.Marshal(payload)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":"ERROR","message":"logx: marshal failure: %v"}`, err))
	}
	return append(line, '\n')
}
