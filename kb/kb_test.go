package kb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/signalsfoundry/impact-simulator/model"
)

func rockyInput() model.SimulationInput {
	return model.SimulationInput{
		Diameter:      20,
		Composition:   model.CompositionRocky,
		Velocity:      19,
		ApproachAngle: 18,
	}
}

func TestAddAndGetPreset(t *testing.T) {
	store := NewKnowledgeBase()
	if err := store.Add(model.Preset{ID: "p1", Name: "Preset1", Input: rockyInput()}); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	got, err := store.Get("p1")
	if err != nil || got.Name != "Preset1" {
		t.Fatalf("Get returned %#v, %v; want name Preset1", got, err)
	}
}

func TestGetPresetNotFound(t *testing.T) {
	store := NewKnowledgeBase()
	if _, err := store.Get("missing"); !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("Get error = %v, want ErrPresetNotFound", err)
	}
}

func TestAddPresetDuplicate(t *testing.T) {
	store := NewKnowledgeBase()
	if err := store.Add(model.Preset{ID: "p1", Input: rockyInput()}); err != nil {
		t.Fatalf("first Add error: %v", err)
	}
	if err := store.Add(model.Preset{ID: "p1", Input: rockyInput()}); !errors.Is(err, ErrDuplicatePreset) {
		t.Fatalf("duplicate Add error = %v, want ErrDuplicatePreset", err)
	}
}

func TestAddPresetValidation(t *testing.T) {
	reject := errors.New("too small")
	store := NewKnowledgeBase(WithValidator(func(in model.SimulationInput) error {
		if in.Diameter < 1 {
			return reject
		}
		return nil
	}))

	tests := []struct {
		name string
		p    model.Preset
	}{
		{"empty id", model.Preset{Input: rockyInput()}},
		{"unknown composition", model.Preset{ID: "ice", Input: model.SimulationInput{Diameter: 10, Composition: "icy"}}},
		{"validator", model.Preset{ID: "tiny", Input: model.SimulationInput{Diameter: 0.5, Composition: model.CompositionRocky}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Add(tt.p); !errors.Is(err, ErrInvalidPreset) {
				t.Fatalf("Add error = %v, want ErrInvalidPreset", err)
			}
		})
	}
	if store.Len() != 0 {
		t.Fatalf("Len = %d after rejected adds, want 0", store.Len())
	}
}

func TestListSortedByID(t *testing.T) {
	store := NewKnowledgeBase()
	for _, id := range []string{"c", "a", "b"} {
		if err := store.Add(model.Preset{ID: id, Input: rockyInput()}); err != nil {
			t.Fatalf("Add(%s) error: %v", id, err)
		}
	}
	got := store.List()
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("List order = %v", got)
	}
}

func TestDefaultPresets(t *testing.T) {
	store, err := NewWithDefaults()
	if err != nil {
		t.Fatalf("NewWithDefaults error: %v", err)
	}
	for _, id := range []string{"chelyabinsk", "tunguska", "meteor-crater", "chicxulub", "eltanin", "small-meteor"} {
		if _, err := store.Get(id); err != nil {
			t.Fatalf("default preset %q missing: %v", id, err)
		}
	}
	eltanin, _ := store.Get("eltanin")
	if !eltanin.Input.ImpactLocation.IsOcean {
		t.Fatalf("eltanin should be an ocean scenario")
	}

	// Callers must not be able to mutate the built-in table.
	a := DefaultPresets()
	a[0].ID = "mutated"
	if DefaultPresets()[0].ID == "mutated" {
		t.Fatalf("DefaultPresets shares backing storage")
	}
}

func TestSubscribe(t *testing.T) {
	store := NewKnowledgeBase()
	var got []string
	unsubscribe := store.Subscribe(func(ev Event) {
		if ev.Type == EventPresetAdded {
			got = append(got, ev.Preset.ID)
		}
	})

	if err := store.Add(model.Preset{ID: "one", Input: rockyInput()}); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	unsubscribe()
	if err := store.Add(model.Preset{ID: "two", Input: rockyInput()}); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	if len(got) != 1 || got[0] != "one" {
		t.Fatalf("events = %v, want [one]", got)
	}
}

func TestLoad(t *testing.T) {
	store := NewKnowledgeBase()
	n, err := store.Load(strings.NewReader(`[
		{"id": "apophis", "name": "Apophis", "input": {"diameter": 370, "composition": "rocky", "velocity": 12.6, "approachAngle": 45, "impactLocation": {"lat": 10, "lon": 20, "isOcean": true}}},
		{"id": "iron", "name": "Iron", "input": {"diameter": 30, "composition": "metallic", "velocity": 15, "approachAngle": 60, "impactLocation": {"lat": 0, "lon": 0}}}
	]`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if n != 2 {
		t.Fatalf("Load stored %d, want 2", n)
	}
	p, err := store.Get("apophis")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if p.Input.Diameter != 370 || !p.Input.ImpactLocation.IsOcean {
		t.Fatalf("decoded preset = %+v", p)
	}
}

func TestLoadRejectsUnknownFieldsAndDuplicates(t *testing.T) {
	store := NewKnowledgeBase()
	if _, err := store.Load(strings.NewReader(`[{"id": "x", "bogus": 1}]`)); err == nil {
		t.Fatalf("expected unknown field error")
	}

	n, err := store.Load(strings.NewReader(`[
		{"id": "a", "input": {"diameter": 10, "composition": "rocky", "velocity": 15, "approachAngle": 45}},
		{"id": "a", "input": {"diameter": 10, "composition": "rocky", "velocity": 15, "approachAngle": 45}}
	]`))
	if !errors.Is(err, ErrDuplicatePreset) {
		t.Fatalf("Load error = %v, want ErrDuplicatePreset", err)
	}
	if n != 1 {
		t.Fatalf("Load stored %d before failing, want 1", n)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	body := `[{"id": "f", "input": {"diameter": 10, "composition": "carbonaceous", "velocity": 20, "approachAngle": 30}}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewKnowledgeBase()
	if _, err := store.LoadFile(path); err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if _, err := store.Get("f"); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if _, err := store.LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestConcurrentAddAndList(t *testing.T) {
	store := NewKnowledgeBase()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if err := store.Add(model.Preset{ID: fmt.Sprintf("p-%02d", i), Input: rockyInput()}); err != nil {
				t.Errorf("Add error: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			_ = store.List()
		}()
	}
	wg.Wait()
	if store.Len() != 20 {
		t.Fatalf("Len = %d, want 20", store.Len())
	}
}
