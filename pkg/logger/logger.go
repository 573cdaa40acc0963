// Package logger provides the leveled, component-tagged logger used across
// the bridge. Output goes to stderr as a single line per entry so it plays
// well with journald and container log collectors.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var (
	mu    sync.Mutex
	level = INFO
	out   io.Writer = os.Stderr
)

// SetLevel sets the minimum level that will be written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// SetOutput redirects log output, used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func logf(l Level, component, msg string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}

	var sb strings.Builder
	sb.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	sb.WriteString(" [")
	sb.WriteString(levelNames[l])
	sb.WriteString("] [")
	sb.WriteString(component)
	sb.WriteString("] ")
	sb.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, fields[k])
		}
	}

	fmt.Fprintln(out, sb.String())
}

func DebugC(component, msg string)                    { logf(DEBUG, component, msg, nil) }
func DebugCF(component, msg string, f map[string]any) { logf(DEBUG, component, msg, f) }
func InfoC(component, msg string)                     { logf(INFO, component, msg, nil) }
func InfoCF(component, msg string, f map[string]any)  { logf(INFO, component, msg, f) }
func WarnC(component, msg string)                     { logf(WARN, component, msg, nil) }
func WarnCF(component, msg string, f map[string]any)  { logf(WARN, component, msg, f) }
func ErrorC(component, msg string)                    { logf(ERROR, component, msg, nil) }
func ErrorCF(component, msg string, f map[string]any) { logf(ERROR, component, msg, f) }
