// Package record keeps the auditable ledger of tool execution attempts.
//
// Every dispatch creates a pending record; exactly one terminal update
// (success or error) follows. The in-memory ledger is capacity-bounded,
// newest first, and is mirrored best-effort to a persistence collaborator so
// the execution history survives restarts.
package record

import (
	"fmt"
	"log"
	"sync"
	"time"

	"tooldeck/model"
)

// DefaultCapacity bounds the ledger when no explicit capacity is given.
const DefaultCapacity = 100

// Mirror is the persisted reflection of the ledger. Implementations replace
// the whole bounded list on write; Load returns newest-first.
type Mirror interface {
	Load() ([]model.ExecutionRecord, error)
	Replace(records []model.ExecutionRecord) error
}

// Sink receives one callback per status transition of a record: once when it
// is appended pending, and once when it reaches its terminal status.
type Sink func(rec model.ExecutionRecord)

// Store is the bounded in-memory execution ledger.
//
// Records are mutated only through Complete/Fail by the orchestrator that
// owns the in-flight call; reads return copies. The mutex exists so UI reads
// can safely interleave with the single writer.
type Store struct {
	mu       sync.Mutex
	records  []model.ExecutionRecord // newest first
	capacity int
	mirror   Mirror
	sink     Sink
	logger   *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity overrides the default ledger bound.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithMirror attaches a persisted mirror. Mirror failures are logged, never
// surfaced: persistence must not block the in-memory turn.
func WithMirror(m Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// WithSink attaches the execution-event callback.
func WithSink(sink Sink) Option {
	return func(s *Store) { s.sink = sink }
}

// WithLogger attaches a diagnostics logger. May be nil.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty ledger. If a mirror is attached, previously
// persisted records are loaded into memory (already-terminal history only;
// a pending record in the mirror means a crash mid-execution and is loaded
// as-is for auditability).
func NewStore(opts ...Option) *Store {
	s := &Store{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(s)
	}

	if s.mirror != nil {
		loaded, err := s.mirror.Load()
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("record: failed to load mirror: %v", err)
			}
		} else {
			if len(loaded) > s.capacity {
				loaded = loaded[:s.capacity]
			}
			s.records = loaded
		}
	}
	return s
}

// Append adds a new record at the head of the ledger, evicting the oldest
// entry past capacity, and notifies the sink.
func (s *Store) Append(rec model.ExecutionRecord) {
	s.mu.Lock()
	s.records = append([]model.ExecutionRecord{rec}, s.records...)
	if len(s.records) > s.capacity {
		s.records = s.records[:s.capacity]
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(rec)
}

// Complete transitions a pending record to success. A second terminal
// transition is rejected.
func (s *Store) Complete(id, output string, metrics map[string]any) error {
	return s.finalize(id, model.StatusSuccess, output, metrics)
}

// Fail transitions a pending record to error. The human-readable cause goes
// into Metrics["error"].
func (s *Store) Fail(id, errMsg string, metrics map[string]any) error {
	if metrics == nil {
		metrics = make(map[string]any)
	}
	metrics["error"] = errMsg
	return s.finalize(id, model.StatusError, "", metrics)
}

func (s *Store) finalize(id string, status model.ExecutionStatus, output string, metrics map[string]any) error {
	s.mu.Lock()

	idx := -1
	for i := range s.records {
		if s.records[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("record %s not found", id)
	}
	if s.records[idx].Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("record %s already terminal (%s)", id, s.records[idx].Status)
	}

	rec := &s.records[idx]
	rec.Status = status
	if output != "" {
		rec.Output = output
	}
	end := time.Now()
	rec.EndTime = &end
	if rec.Metrics == nil {
		rec.Metrics = make(map[string]any)
	}
	for k, v := range metrics {
		rec.Metrics[k] = v
	}
	if _, ok := rec.Metrics["processingTime"]; !ok {
		rec.Metrics["processingTime"] = end.Sub(rec.StartTime).Seconds()
	}

	updated := *rec
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
	s.notify(updated)
	return nil
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (model.ExecutionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return model.ExecutionRecord{}, false
}

// All returns a newest-first copy of the ledger.
func (s *Store) All() []model.ExecutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Clear empties the ledger and its mirror.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
	s.persist(nil)
}

func (s *Store) snapshotLocked() []model.ExecutionRecord {
	out := make([]model.ExecutionRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) persist(snapshot []model.ExecutionRecord) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Replace(snapshot); err != nil && s.logger != nil {
		s.logger.Printf("record: failed to persist mirror: %v", err)
	}
}

func (s *Store) notify(rec model.ExecutionRecord) {
	if s.sink != nil {
		s.sink(rec)
	}
}
