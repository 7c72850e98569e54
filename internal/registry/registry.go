// Package registry persists trained model artifacts as JSON files under a
// single directory, with a registry.json index tracking the current and
// previous version per client and model kind.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Werewolf05/Pulselytics/internal/model"
)

const indexFile = "registry.json"

// indexEntry records the stored versions for one (client, kind) pair.
type indexEntry struct {
	File         string                  `json:"file"`
	Meta         model.ArtifactMetadata  `json:"meta"`
	PreviousFile string                  `json:"previousFile,omitempty"`
	PreviousMeta *model.ArtifactMetadata `json:"previousMeta,omitempty"`
}

// Registry is a file-backed artifact store. Safe for concurrent use.
type Registry struct {
	dir string

	mu    sync.RWMutex
	index map[string]indexEntry
}

// New opens the registry at dir, creating it if needed and loading any
// existing index. A corrupt index is discarded and rebuilt on next save.
func New(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("registry: create dir: %w", err)
	}
	r := &Registry{dir: dir, index: map[string]indexEntry{}}

	raw, err := os.ReadFile(filepath.Join(dir, indexFile))
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry: read index: %w", err)
	}
	if err := json.Unmarshal(raw, &r.index); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("discarding corrupt registry index")
		r.index = map[string]indexEntry{}
	}
	return r, nil
}

// Save persists an artifact as the current version for (clientID, kind) and
// demotes the prior current version to previous. The version before that is
// removed from disk.
func (r *Registry) Save(clientID, kind string, artifact any, meta model.ArtifactMetadata) error {
	payload, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("registry: marshal artifact: %w", err)
	}

	if meta.Version == "" {
		meta.Version = time.Now().UTC().Format("20060102T150405")
	}
	if meta.TrainedOn == "" {
		meta.TrainedOn = time.Now().UTC().Format(time.RFC3339)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := clientID + "/" + kind
	prev := r.index[key]

	// The stamp has one-second granularity, and callers may resend an
	// explicit version. The new file must never land on a retained one, or
	// the artifact it is supposed to demote gets overwritten in place.
	base := meta.Version
	file := fmt.Sprintf("%s_%s_%s.json", clientID, kind, meta.Version)
	for n := 2; file == prev.File || file == prev.PreviousFile; n++ {
		meta.Version = fmt.Sprintf("%s-%d", base, n)
		file = fmt.Sprintf("%s_%s_%s.json", clientID, kind, meta.Version)
	}

	if err := r.writeFile(file, payload); err != nil {
		return err
	}

	entry := indexEntry{File: file, Meta: meta}
	if prev.File != "" {
		entry.PreviousFile = prev.File
		prevMeta := prev.Meta
		entry.PreviousMeta = &prevMeta
	}
	r.index[key] = entry

	if err := r.writeIndex(); err != nil {
		return err
	}

	// Two versions retained; anything older goes.
	if prev.PreviousFile != "" && prev.PreviousFile != entry.PreviousFile && prev.PreviousFile != file {
		if err := os.Remove(filepath.Join(r.dir, prev.PreviousFile)); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", prev.PreviousFile).Msg("failed to prune old artifact")
		}
	}

	log.Info().Str("client", clientID).Str("kind", kind).Str("version", meta.Version).
		Msg("artifact saved")
	return nil
}

// Load reads the current artifact for (clientID, kind) into the given value
// and returns its metadata. A missing or unreadable artifact yields
// model.ErrModelNotFound.
func (r *Registry) Load(clientID, kind string, into any) (model.ArtifactMetadata, error) {
	r.mu.RLock()
	entry, ok := r.index[clientID+"/"+kind]
	r.mu.RUnlock()
	if !ok {
		return model.ArtifactMetadata{}, model.ErrModelNotFound
	}

	raw, err := os.ReadFile(filepath.Join(r.dir, entry.File))
	if err != nil {
		return model.ArtifactMetadata{}, fmt.Errorf("%w: %s", model.ErrModelNotFound, entry.File)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		log.Warn().Err(err).Str("file", entry.File).Msg("artifact unreadable")
		return model.ArtifactMetadata{}, fmt.Errorf("%w: corrupt artifact %s", model.ErrModelNotFound, entry.File)
	}
	return entry.Meta, nil
}

// Meta returns the current metadata for (clientID, kind) without reading the
// artifact file.
func (r *Registry) Meta(clientID, kind string) (model.ArtifactMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.index[clientID+"/"+kind]
	if !ok {
		return model.ArtifactMetadata{}, model.ErrModelNotFound
	}
	return entry.Meta, nil
}

// Status summarizes both model kinds for a client. Untrained kinds are nil.
func (r *Registry) Status(clientID string) model.ModelStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var status model.ModelStatus
	if entry, ok := r.index[clientID+"/"+model.KindPredictor]; ok {
		meta := entry.Meta
		status.Predictor = &meta
	}
	if entry, ok := r.index[clientID+"/"+model.KindDetector]; ok {
		meta := entry.Meta
		status.AnomalyDetector = &meta
	}
	return status
}

// writeFile writes atomically via a temp file in the same directory.
func (r *Registry) writeFile(name string, payload []byte) error {
	tmp, err := os.CreateTemp(r.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("registry: temp file: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("registry: write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("registry: close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(r.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("registry: rename artifact: %w", err)
	}
	return nil
}

func (r *Registry) writeIndex() error {
	payload, err := json.MarshalIndent(r.index, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal index: %w", err)
	}
	return r.writeFile(indexFile, payload)
}
