// Package storage persists trained model checkpoints on disk.
//
// Each checkpoint is a directory under the store root holding A.csv, B.csv
// and metadata.json. Matrices are written with full float64 precision so a
// restored model predicts bit-identically to the one that was saved.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/koopid/internal/config"
	"github.com/san-kum/koopid/internal/dynamo"
	"github.com/san-kum/koopid/internal/koopman"
)

// ErrNotFound is returned for checkpoint ids with no metadata on disk.
var ErrNotFound = errors.New("storage: checkpoint not found")

const (
	metadataFile = "metadata.json"
	matrixA      = "A.csv"
	matrixB      = "B.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Metadata describes a checkpoint well enough to rebuild the model.
type Metadata struct {
	ID           string             `json:"id"`
	Plant        string             `json:"plant"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         int64              `json:"seed"`
	Observations []string           `json:"observations"`
	Controls     []string           `json:"controls"`
	Options      config.Options     `json:"options"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// Save writes a checkpoint for a trained model. ID, Observations, Controls,
// Options and Timestamp are filled from the model; the caller supplies the
// rest of meta.
func (s *Store) Save(m *koopman.Model, meta Metadata) (string, error) {
	params, err := m.Parameters()
	if err != nil {
		return "", err
	}

	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Plant, now.UnixNano())
	meta.Timestamp = now
	meta.Observations = m.System().Observations()
	meta.Controls = m.System().Controls()
	meta.Options = m.Options()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeMatrix(filepath.Join(runDir, matrixA), params[koopman.ParamA]); err != nil {
		return "", err
	}
	if err := writeMatrix(filepath.Join(runDir, matrixB), params[koopman.ParamB]); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns every readable checkpoint, oldest first. Directories without
// valid metadata are skipped.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Metadata{}, nil
		}
		return nil, err
	}

	runs := make([]Metadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(id string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", id, err)
	}
	return &meta, nil
}

// LoadParameters reads the A and B matrices of a checkpoint.
func (s *Store) LoadParameters(id string) (koopman.Parameters, error) {
	a, err := readMatrix(filepath.Join(s.baseDir, id, matrixA))
	if err != nil {
		return nil, err
	}
	b, err := readMatrix(filepath.Join(s.baseDir, id, matrixB))
	if err != nil {
		return nil, err
	}
	return koopman.Parameters{koopman.ParamA: a, koopman.ParamB: b}, nil
}

// Restore rebuilds a trained model from a checkpoint.
func (s *Store) Restore(id string, options ...koopman.Option) (*koopman.Model, *Metadata, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, nil, err
	}
	sys, err := dynamo.NewSystem(meta.Observations, meta.Controls)
	if err != nil {
		return nil, nil, err
	}
	m, err := koopman.New(sys, meta.Options, options...)
	if err != nil {
		return nil, nil, err
	}
	params, err := s.LoadParameters(id)
	if err != nil {
		return nil, nil, err
	}
	if err := m.SetParameters(params); err != nil {
		return nil, nil, fmt.Errorf("storage: %s: %w", id, err)
	}
	return m, meta, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMatrix(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	r, c := m.Dims()
	row := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("storage: %s: empty matrix", filepath.Base(path))
	}

	r, c := len(records), len(records[0])
	data := make([]float64, 0, r*c)
	for i, rec := range records {
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s[%d,%d]: %w", filepath.Base(path), i, j, err)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(r, c, data), nil
}
