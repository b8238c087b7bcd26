package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/signalsfoundry/impact-simulator/model"
)

var (
	// ErrPresetNotFound is returned by Get for an unknown id.
	ErrPresetNotFound = errors.New("preset not found")
	// ErrDuplicatePreset is returned by Add when the id is taken.
	ErrDuplicatePreset = errors.New("preset already exists")
	// ErrInvalidPreset is returned by Add for presets that fail validation.
	ErrInvalidPreset = errors.New("invalid preset")
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventPresetAdded EventType = iota
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type   EventType
	Preset model.Preset
}

// Validator checks a preset's scenario before it is stored.
type Validator func(model.SimulationInput) error

// Option configures a KnowledgeBase.
type Option func(*KnowledgeBase)

// WithValidator rejects presets whose input fails fn.
func WithValidator(fn Validator) Option {
	return func(kb *KnowledgeBase) {
		kb.validate = fn
	}
}

// KnowledgeBase is an in-memory, thread-safe store of named scenarios.
type KnowledgeBase struct {
	mu sync.RWMutex

	presets  map[string]model.Preset
	validate Validator

	subs map[int]func(Event)
	next int
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase(opts ...Option) *KnowledgeBase {
	kb := &KnowledgeBase{
		presets: make(map[string]model.Preset),
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(kb)
	}
	return kb
}

// NewWithDefaults returns a KB seeded with DefaultPresets.
func NewWithDefaults(opts ...Option) (*KnowledgeBase, error) {
	kb := NewKnowledgeBase(opts...)
	for _, p := range DefaultPresets() {
		if err := kb.Add(p); err != nil {
			return nil, err
		}
	}
	return kb, nil
}

// Add stores p. It returns an error if the ID is empty, already exists, or
// the scenario does not validate.
func (kb *KnowledgeBase) Add(p model.Preset) error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPreset)
	}
	if !p.Input.Composition.Valid() {
		return fmt.Errorf("%w: preset %q: unknown composition %q", ErrInvalidPreset, p.ID, p.Input.Composition)
	}
	if kb.validate != nil {
		if err := kb.validate(p.Input); err != nil {
			return fmt.Errorf("%w: preset %q: %v", ErrInvalidPreset, p.ID, err)
		}
	}

	kb.mu.Lock()
	if _, exists := kb.presets[p.ID]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicatePreset, p.ID)
	}
	kb.presets[p.ID] = p
	subs := make([]func(Event), 0, len(kb.subs))
	for _, fn := range kb.subs {
		subs = append(subs, fn)
	}
	kb.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, fn := range subs {
		fn(Event{Type: EventPresetAdded, Preset: p})
	}
	return nil
}

// Get returns the preset with the given ID.
func (kb *KnowledgeBase) Get(id string) (model.Preset, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	p, ok := kb.presets[id]
	if !ok {
		return model.Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, id)
	}
	return p, nil
}

// List returns a snapshot of all presets ordered by ID.
func (kb *KnowledgeBase) List() []model.Preset {
	kb.mu.RLock()
	res := make([]model.Preset, 0, len(kb.presets))
	for _, p := range kb.presets {
		res = append(res, p)
	}
	kb.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Len reports the number of stored presets.
func (kb *KnowledgeBase) Len() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.presets)
}

// Subscribe registers a callback for KB events. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.next
	kb.next++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

// Load reads a JSON array of presets from r and adds each one. It stops at
// the first preset that cannot be added and returns how many were stored.
func (kb *KnowledgeBase) Load(r io.Reader) (int, error) {
	if r == nil {
		return 0, fmt.Errorf("kb: nil reader")
	}
	var presets []model.Preset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&presets); err != nil {
		return 0, fmt.Errorf("decode presets: %w", err)
	}
	for i, p := range presets {
		if err := kb.Add(p); err != nil {
			return i, err
		}
	}
	return len(presets), nil
}

// LoadFile is Load on the file at path.
func (kb *KnowledgeBase) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open presets: %w", err)
	}
	defer f.Close()
	return kb.Load(f)
}
