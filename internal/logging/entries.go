package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Entry is one parsed line of a log file.
type Entry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	RunID     string         `json:"run_id,omitempty"`
	AccountID int            `json:"account_id,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// Filter selects entries. Zero-valued fields match everything; set fields
// are combined with AND.
type Filter struct {
	Level           string // minimum level
	Since           time.Time
	RunID           string
	AccountID       int
	MessageContains string
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ReadEntries parses every JSON line of the log file at path, sorted by time.
// Lines that are not valid JSON are skipped.
func ReadEntries(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	const maxScanTokenSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func parseEntry(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	entry := Entry{Attrs: make(map[string]any)}
	for k, v := range raw {
		switch k {
		case "time":
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					entry.Timestamp = t
				}
			}
		case "level":
			entry.Level, _ = v.(string)
		case "msg":
			entry.Message, _ = v.(string)
		case "run_id":
			entry.RunID, _ = v.(string)
		case "account_id":
			if f, ok := v.(float64); ok {
				entry.AccountID = int(f)
			}
		default:
			entry.Attrs[k] = v
		}
	}
	return entry, nil
}

// FilterEntries returns the entries matching f.
func FilterEntries(entries []Entry, f Filter) []Entry {
	var out []Entry
	for _, e := range entries {
		if f.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f Filter) matches(e Entry) bool {
	if f.Level != "" {
		want, ok1 := levelOrder[strings.ToUpper(f.Level)]
		got, ok2 := levelOrder[e.Level]
		if ok1 && ok2 && got < want {
			return false
		}
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if f.AccountID != 0 && e.AccountID != f.AccountID {
		return false
	}
	if f.MessageContains != "" && !strings.Contains(e.Message, f.MessageContains) {
		return false
	}
	return true
}

// WriteText renders entries one per line as
// "[2006-01-02 15:04:05] LEVEL message (run=..., account=N) {attrs}".
func WriteText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%s] %-5s %s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Level, e.Message)

		var ctx []string
		if e.RunID != "" {
			ctx = append(ctx, "run="+e.RunID)
		}
		if e.AccountID != 0 {
			ctx = append(ctx, fmt.Sprintf("account=%d", e.AccountID))
		}
		if len(ctx) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(ctx, ", "))
		}
		if len(e.Attrs) > 0 {
			attrs, _ := json.Marshal(e.Attrs)
			sb.WriteString(" ")
			sb.Write(attrs)
		}
		sb.WriteString("\n")

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
