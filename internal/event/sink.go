package event

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sink receives emitted events.
type Sink interface {
	Put(ev Event) error
}

// Emitter stamps events with a sequence number and timestamp and fans
// them out to every configured sink. Sink errors are logged and do not
// fail the emitting operation.
type Emitter struct {
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	seq   uint64
	sinks []Sink
}

func NewEmitter(logger *zap.Logger, sinks ...Sink) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		logger: logger,
		now:    time.Now,
		sinks:  sinks,
	}
}

// Emit publishes the named payload to all sinks.
func (e *Emitter) Emit(name string, payload interface{}) {
	e.mu.Lock()
	e.seq++
	ev := Event{
		Sequence:  e.seq,
		Timestamp: e.now().Unix(),
		Name:      name,
		Payload:   payload,
	}
	sinks := e.sinks
	e.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Put(ev); err != nil {
			e.logger.Warn("event sink write failed",
				zap.String("event", name),
				zap.Uint64("sequence", ev.Sequence),
				zap.Error(err),
			)
		}
	}
}

// JSONLSink appends events to a JSONL file.
type JSONLSink struct {
	path string
	mu   sync.Mutex
}

func NewJSONLSink(path string) *JSONLSink {
	return &JSONLSink{path: path}
}

func (s *JSONLSink) Put(ev Event) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// MemorySink buffers events in memory, mostly for tests and inspection.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Put(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of everything received so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Named returns the received events carrying the given name.
func (s *MemorySink) Named(name string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}
