package serverquery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// QueryError is a non-zero `error id=... msg=...` response line.
type QueryError struct {
	ID  int
	Msg string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("serverquery: error id=%d msg=%q", e.ID, e.Msg)
}

// parseArgs decodes one `key=value key2=value2` record into a map.
// Bare flags (no '=') map to the empty string.
func parseArgs(record string) map[string]string {
	args := make(map[string]string)
	for _, field := range strings.Split(record, " ") {
		if field == "" {
			continue
		}
		if eq := strings.IndexByte(field, '='); eq >= 0 {
			args[field[:eq]] = Unescape(field[eq+1:])
		} else {
			args[field] = ""
		}
	}
	return args
}

// parseRecords decodes a pipe-separated multi-entry response line.
func parseRecords(line string) []map[string]string {
	parts := strings.Split(line, "|")
	records := make([]map[string]string, 0, len(parts))
	for _, part := range parts {
		records = append(records, parseArgs(part))
	}
	return records
}

// parseErrorLine decodes the terminating `error id=... msg=...` line.
// id 0 means success and yields a nil error.
func parseErrorLine(line string) error {
	args := parseArgs(strings.TrimPrefix(line, "error "))
	id, _ := strconv.Atoi(args["id"])
	if id == 0 {
		return nil
	}
	return &QueryError{ID: id, Msg: args["msg"]}
}

// buildCommand renders a command with escaped parameter values. Parameters
// are emitted in sorted key order so commands are deterministic.
func buildCommand(name string, args map[string]string) string {
	if len(args) == 0 {
		return name
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(name)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(Escape(args[k]))
	}
	return sb.String()
}
