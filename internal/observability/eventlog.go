package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event levels.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Event is one line of the analysis trace: a run boundary, a parse
// decision, a rule match, a candidate verdict, or a store mutation.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Type    string         `json:"type"` // e.g. "run.started", "rule.matched"
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter specifies criteria for reading events.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
	Level string
}

// EventLog defines the interface for writing and reading trace events.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog implements EventLog using an append-only JSONL file.
type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLEventLog creates an EventLog backed by a JSONL file at the given
// path.
func NewJSONLEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{
		path: path,
		file: f,
	}, nil
}

// Write appends a JSON-encoded event followed by a newline to the log file.
func (l *jsonlEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read scans the log line by line and returns the events matching the
// filter. Malformed lines are skipped so one bad write never poisons the
// whole trace.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		if matchesEventFilter(event, filter) {
			events = append(events, event)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}

	return events, nil
}

// Close closes the underlying log file.
func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

// matchesEventFilter checks whether an event satisfies all filter criteria.
func matchesEventFilter(event Event, filter EventFilter) bool {
	if filter.Since != nil && event.Time.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && event.Time.After(*filter.Until) {
		return false
	}
	if filter.Type != "" && event.Type != filter.Type {
		return false
	}
	if filter.Level != "" && event.Level != filter.Level {
		return false
	}
	return true
}

// EventWriter adapts the event log to the one-method surface the analysis
// services log through, stamping the time and deriving level and message
// from the event type.
type EventWriter struct {
	log EventLog
}

// NewEventWriter creates an EventWriter over the given log.
func NewEventWriter(log EventLog) *EventWriter {
	return &EventWriter{log: log}
}

func (w *EventWriter) LogEvent(eventType string, data map[string]any) error {
	return w.log.Write(Event{
		Time:    time.Now().UTC(),
		Level:   eventLevel(eventType),
		Type:    eventType,
		Message: eventMessage(eventType),
		Data:    data,
	})
}

// eventLevel maps event types to levels: store failures are errors,
// fallback parses and rejected candidates are warnings, everything else is
// informational.
func eventLevel(eventType string) string {
	switch eventType {
	case "kb.update_failed", "kb.load_failed":
		return LevelError
	case "parse.fallback", "candidate.rejected":
		return LevelWarn
	default:
		return LevelInfo
	}
}

var eventMessages = map[string]string{
	"run.started":        "analysis run started",
	"run.completed":      "analysis run completed",
	"parse.fallback":     "grammar parse failed, fallback matcher used",
	"rule.matched":       "rule matched against script",
	"candidate.accepted": "candidate rule accepted",
	"candidate.rejected": "candidate rule rejected",
	"kb.updated":         "knowledge base updated",
	"kb.update_failed":   "knowledge base update failed",
	"kb.load_failed":     "knowledge base load failed",
}

func eventMessage(eventType string) string {
	if msg, ok := eventMessages[eventType]; ok {
		return msg
	}
	return eventType
}
