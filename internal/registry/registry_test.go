package registry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Werewolf05/Pulselytics/internal/model"
)

type fakeArtifact struct {
	Weights []float64 `json:"weights"`
	Label   string    `json:"label"`
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	saved := fakeArtifact{Weights: []float64{1.5, -2.25}, Label: "v1"}
	meta := model.ArtifactMetadata{SamplesTrained: 80, FeaturesUsed: 2}
	if err := r.Save("acme", model.KindPredictor, saved, meta); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var loaded fakeArtifact
	gotMeta, err := r.Load("acme", model.KindPredictor, &loaded)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Label != "v1" || len(loaded.Weights) != 2 || loaded.Weights[1] != -2.25 {
		t.Errorf("loaded artifact = %+v, want %+v", loaded, saved)
	}
	if gotMeta.SamplesTrained != 80 {
		t.Errorf("SamplesTrained = %d, want 80", gotMeta.SamplesTrained)
	}
	if gotMeta.Version == "" || gotMeta.TrainedOn == "" {
		t.Errorf("expected stamped version and timestamp, got %+v", gotMeta)
	}
}

func TestLoadMissing(t *testing.T) {
	r, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var into fakeArtifact
	if _, err := r.Load("nobody", model.KindDetector, &into); !errors.Is(err, model.ErrModelNotFound) {
		t.Errorf("error = %v, want ErrModelNotFound", err)
	}
}

func TestSaveReplacesCurrent(t *testing.T) {
	r, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, label := range []string{"v1", "v2"} {
		err := r.Save("acme", model.KindDetector, fakeArtifact{Label: label},
			model.ArtifactMetadata{Version: label})
		if err != nil {
			t.Fatalf("Save %s: %v", label, err)
		}
	}

	var loaded fakeArtifact
	meta, err := r.Load("acme", model.KindDetector, &loaded)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Label != "v2" || meta.Version != "v2" {
		t.Errorf("current = %s/%s, want v2/v2", loaded.Label, meta.Version)
	}
}

func TestRapidSavesKeepPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// No explicit versions: both saves stamp within the same second, so the
	// registry must disambiguate the filenames itself.
	for _, label := range []string{"first", "second"} {
		err := r.Save("acme", model.KindDetector, fakeArtifact{Label: label},
			model.ArtifactMetadata{})
		if err != nil {
			t.Fatalf("Save %s: %v", label, err)
		}
	}

	entry := r.index["acme/"+model.KindDetector]
	if entry.PreviousFile == "" {
		t.Fatal("previous version not recorded after second save")
	}
	if entry.PreviousFile == entry.File {
		t.Fatalf("previous file %s collides with current", entry.File)
	}

	var current, previous fakeArtifact
	if _, err := r.Load("acme", model.KindDetector, &current); err != nil {
		t.Fatalf("Load current: %v", err)
	}
	if current.Label != "second" {
		t.Errorf("current = %s, want second", current.Label)
	}
	raw, err := os.ReadFile(filepath.Join(dir, entry.PreviousFile))
	if err != nil {
		t.Fatalf("read previous artifact: %v", err)
	}
	if err := json.Unmarshal(raw, &previous); err != nil {
		t.Fatalf("decode previous artifact: %v", err)
	}
	if previous.Label != "first" {
		t.Errorf("previous = %s, want first", previous.Label)
	}
}

func TestSaveDisambiguatesRepeatedVersion(t *testing.T) {
	r, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, label := range []string{"first", "second"} {
		err := r.Save("acme", model.KindPredictor, fakeArtifact{Label: label},
			model.ArtifactMetadata{Version: "v1"})
		if err != nil {
			t.Fatalf("Save %s: %v", label, err)
		}
	}

	entry := r.index["acme/"+model.KindPredictor]
	if entry.Meta.Version == "v1" {
		t.Error("repeated version was not disambiguated")
	}
	if entry.PreviousMeta == nil || entry.PreviousMeta.Version != "v1" {
		t.Errorf("previous meta = %+v, want version v1", entry.PreviousMeta)
	}

	var current fakeArtifact
	if _, err := r.Load("acme", model.KindPredictor, &current); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if current.Label != "second" {
		t.Errorf("current = %s, want second", current.Label)
	}
}

func TestRetentionPrunesThirdVersion(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, label := range []string{"v1", "v2", "v3"} {
		err := r.Save("acme", model.KindPredictor, fakeArtifact{Label: label},
			model.ArtifactMetadata{Version: label})
		if err != nil {
			t.Fatalf("Save %s: %v", label, err)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "acme_predictor_v1.json")); !os.IsNotExist(err) {
		t.Error("v1 artifact should have been pruned")
	}
	for _, label := range []string{"v2", "v3"} {
		name := "acme_predictor_" + label + ".json"
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s on disk: %v", name, err)
		}
	}
}

func TestIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Save("acme", model.KindPredictor, fakeArtifact{Label: "v1"},
		model.ArtifactMetadata{Version: "v1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	var loaded fakeArtifact
	if _, err := reopened.Load("acme", model.KindPredictor, &loaded); err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if loaded.Label != "v1" {
		t.Errorf("loaded %s, want v1", loaded.Label)
	}
}

func TestCorruptArtifactReportsNotFound(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Save("acme", model.KindDetector, fakeArtifact{Label: "v1"},
		model.ArtifactMetadata{Version: "v1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "acme_detector_v1.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("corrupt artifact: %v", err)
	}

	var loaded fakeArtifact
	if _, err := r.Load("acme", model.KindDetector, &loaded); !errors.Is(err, model.ErrModelNotFound) {
		t.Errorf("error = %v, want ErrModelNotFound", err)
	}
}

func TestCorruptIndexDiscarded(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "registry.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	r, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if status := r.Status("acme"); status.Predictor != nil || status.AnomalyDetector != nil {
		t.Errorf("expected empty status after discarding index, got %+v", status)
	}
}

func TestStatus(t *testing.T) {
	r, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Save("acme", model.KindDetector, fakeArtifact{},
		model.ArtifactMetadata{Version: "v1", SamplesTrained: 40}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	status := r.Status("acme")
	if status.Predictor != nil {
		t.Error("predictor should be nil before training")
	}
	if status.AnomalyDetector == nil || status.AnomalyDetector.SamplesTrained != 40 {
		t.Errorf("detector status = %+v, want SamplesTrained 40", status.AnomalyDetector)
	}

	if other := r.Status("other"); other.AnomalyDetector != nil {
		t.Error("status leaked across clients")
	}
}
