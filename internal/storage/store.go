package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/hydrolab/rolldecay/internal/estimator"
	"github.com/hydrolab/rolldecay/internal/motion"
)

const seriesFile = "series.csv.gz"

// Store persists fit runs as directories under a base dir, one
// metadata.json plus a compressed series file per run.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Variant     string             `json:"variant"`
	Method      string             `json:"method"`
	Timestamp   time.Time          `json:"timestamp"`
	Parameters  map[string]float64 `json:"parameters"`
	Score       float64            `json:"score"`
	Converged   bool               `json:"converged"`
	Omega0Fixed bool               `json:"omega0_fixed"`
	Evaluations int                `json:"evaluations"`
}

// SaveRun writes a completed fit plus the observed and predicted roll
// series and returns the generated run ID. IDs are "<variant>_<unix>",
// suffixed when a second run lands in the same second.
func (s *Store) SaveRun(fit estimator.FitResult, score float64, observed, predicted motion.Series) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	now := time.Now()
	base := fmt.Sprintf("%s_%d", fit.Variant, now.Unix())
	runID := base
	for n := 2; ; n++ {
		err := os.Mkdir(filepath.Join(s.baseDir, runID), 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", err
		}
		runID = fmt.Sprintf("%s_%d", base, n)
	}
	runDir := filepath.Join(s.baseDir, runID)

	meta := RunMetadata{
		ID:          runID,
		Variant:     string(fit.Variant),
		Method:      fit.Method,
		Timestamp:   now,
		Parameters:  fit.Parameters,
		Score:       score,
		Converged:   fit.Converged,
		Omega0Fixed: fit.Omega0Fixed,
		Evaluations: fit.Evaluations,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeSeries(filepath.Join(runDir, seriesFile), observed, predicted); err != nil {
		return "", err
	}
	return runID, nil
}

func writeSeries(path string, observed, predicted motion.Series) error {
	if len(observed.T) != len(predicted.T) {
		return fmt.Errorf("storage: observed and predicted series differ in length (%d vs %d)",
			len(observed.T), len(predicted.T))
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	w := csv.NewWriter(gz)

	if err := w.Write([]string{"time", "phi", "phi_pred"}); err != nil {
		return err
	}
	for i := range observed.T {
		row := []string{
			strconv.FormatFloat(observed.T[i], 'g', -1, 64),
			strconv.FormatFloat(observed.Phi[i], 'g', -1, 64),
			strconv.FormatFloat(predicted.Phi[i], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return gz.Close()
}

// List returns the metadata of every readable run. Directories without
// a parseable metadata.json are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) LoadRun(runID string) (*RunMetadata, error) {
	if err := checkRunID(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads back the observed and predicted roll series of a run.
func (s *Store) LoadSeries(runID string) (observed, predicted motion.Series, err error) {
	if err := checkRunID(runID); err != nil {
		return motion.Series{}, motion.Series{}, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return motion.Series{}, motion.Series{}, err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return motion.Series{}, motion.Series{}, err
	}
	defer gz.Close()

	records, err := csv.NewReader(gz).ReadAll()
	if err != nil {
		return motion.Series{}, motion.Series{}, err
	}
	if len(records) < 2 {
		return motion.Series{}, motion.Series{}, fmt.Errorf("storage: run %s has an empty series", runID)
	}

	n := len(records) - 1
	t := make([]float64, n)
	phi := make([]float64, n)
	pred := make([]float64, n)
	for i := 1; i < len(records); i++ {
		row := records[i]
		if len(row) != 3 {
			return motion.Series{}, motion.Series{}, fmt.Errorf("storage: run %s series row %d has %d fields", runID, i+1, len(row))
		}
		for j, dst := range []*float64{&t[i-1], &phi[i-1], &pred[i-1]} {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return motion.Series{}, motion.Series{}, fmt.Errorf("storage: run %s series row %d: %w", runID, i+1, err)
			}
			*dst = v
		}
	}

	observed = motion.Series{T: t, Phi: phi}
	predicted = motion.Series{T: append([]float64(nil), t...), Phi: pred}
	return observed, predicted, nil
}

func (s *Store) DeleteRun(runID string) error {
	if err := checkRunID(runID); err != nil {
		return err
	}
	runDir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(runDir); err != nil {
		return err
	}
	return os.RemoveAll(runDir)
}

// checkRunID keeps IDs from escaping the base directory.
func checkRunID(runID string) error {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return fmt.Errorf("storage: invalid run id %q", runID)
	}
	return nil
}
