package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	apperrors "github.com/dpshade/promptpad/internal/errors"
	"github.com/dpshade/promptpad/internal/logger"
	"github.com/dpshade/promptpad/internal/models"
)

// SnapshotKey is the single key the whole application state lives under
const SnapshotKey = "prompts_storage"

// Snapshot export formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// KV is the persistent key-value store the snapshot is written to.
// *diskv.Diskv satisfies it.
type KV interface {
	Read(key string) ([]byte, error)
	Write(key string, val []byte) error
	Has(key string) bool
}

// Storage reads and writes the persisted snapshot
type Storage struct {
	kv  KV
	log *logger.Logger
}

// NewStorage creates a storage instance backed by a diskv store rooted at basePath
func NewStorage(basePath string, log *logger.Logger) *Storage {
	return NewWithKV(NewDiskKV(basePath), log)
}

// NewWithKV creates a storage instance over an arbitrary KV backend
func NewWithKV(kv KV, log *logger.Logger) *Storage {
	if log == nil {
		log = logger.NewNop()
	}
	return &Storage{kv: kv, log: log.WithComponent("storage")}
}

// NewDiskKV opens a diskv store that keeps each key in its own .json file
func NewDiskKV(basePath string) *diskv.Diskv {
	return diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})
}

// Load returns the persisted state. A missing snapshot yields a fresh state;
// an unreadable or malformed one is logged and also yields a fresh state.
func (s *Storage) Load() models.AppState {
	if !s.kv.Has(SnapshotKey) {
		return models.NewAppState()
	}

	data, err := s.kv.Read(SnapshotKey)
	if err != nil {
		s.log.Warn("failed to read snapshot, starting empty", zap.Error(err))
		return models.NewAppState()
	}

	var state models.AppState
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn("malformed snapshot, starting empty", zap.Error(err))
		return models.NewAppState()
	}

	return state.Normalize()
}

// Save writes the state. Failures are logged and otherwise ignored.
func (s *Storage) Save(state models.AppState) {
	if err := s.write(state); err != nil {
		s.log.Warn("failed to save snapshot", zap.Error(err))
	}
}

func (s *Storage) write(state models.AppState) error {
	data, err := json.Marshal(state.Normalize())
	if err != nil {
		return apperrors.StorageError("serialize snapshot", err)
	}
	if err := s.kv.Write(SnapshotKey, data); err != nil {
		return apperrors.StorageError("write snapshot", err)
	}
	return nil
}

// Export writes the persisted state to w in the given format
func (s *Storage) Export(w io.Writer, format string) error {
	return Encode(w, s.Load(), format)
}

// Import merges the records read from r into the persisted state. Records
// whose id already exists are skipped. Returns the merged state and the
// number of records added.
func (s *Storage) Import(r io.Reader) (models.AppState, int, error) {
	incoming, err := Decode(r)
	if err != nil {
		return models.AppState{}, 0, err
	}

	state := s.Load()
	added := 0
	for _, p := range incoming.Prompts {
		if _, exists := state.Find(p.ID); exists {
			continue
		}
		state.Prompts = append(state.Prompts, p)
		added++
	}
	sort.SliceStable(state.Prompts, func(i, j int) bool {
		return state.Prompts[i].ID > state.Prompts[j].ID
	})

	if err := s.write(state); err != nil {
		return models.AppState{}, 0, err
	}
	return state, added, nil
}

// Encode serializes state as JSON or YAML
func Encode(w io.Writer, state models.AppState, format string) error {
	state = state.Normalize()
	switch strings.ToLower(format) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(state); err != nil {
			return err
		}
		return enc.Close()
	default:
		return apperrors.InvalidInputError(fmt.Sprintf("unknown format %q (use json or yaml)", format))
	}
}

// Decode reads a snapshot in JSON or YAML
func Decode(r io.Reader) (models.AppState, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.AppState{}, apperrors.StorageError("read import", err)
	}

	var state models.AppState
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &state)
	} else {
		err = yaml.Unmarshal(trimmed, &state)
	}
	if err != nil {
		return models.AppState{}, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "could not parse snapshot")
	}
	return state.Normalize(), nil
}

func keyToPathTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{
		Path:     []string{},
		FileName: key + ".json",
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return strings.TrimSuffix(pathKey.FileName, ".json")
}
