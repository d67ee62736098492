package motion

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ReadCSV loads a record from a CSV file with a header row. Columns time
// and phi are required, phi1d and phi2d are optional, other columns are
// ignored. Files ending in .gz are transparently decompressed.
func ReadCSV(path string) (Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return Series{}, err
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return Series{}, fmt.Errorf("motion: %s: %w", path, err)
		}
		defer gz.Close()
		reader = gz
	}

	records, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		return Series{}, fmt.Errorf("motion: %s: %w", path, err)
	}
	if len(records) < 2 {
		return Series{}, fmt.Errorf("motion: %s has no data rows", path)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	timeCol, ok := cols["time"]
	if !ok {
		return Series{}, fmt.Errorf("motion: %s has no time column", path)
	}
	phiCol, ok := cols["phi"]
	if !ok {
		return Series{}, fmt.Errorf("motion: %s has no phi column", path)
	}
	phi1dCol, hasPhi1d := cols["phi1d"]
	phi2dCol, hasPhi2d := cols["phi2d"]

	n := len(records) - 1
	s := Series{T: make([]float64, n), Phi: make([]float64, n)}
	if hasPhi1d {
		s.Phi1d = make([]float64, n)
	}
	if hasPhi2d {
		s.Phi2d = make([]float64, n)
	}

	for i, record := range records[1:] {
		row := i + 2
		if s.T[i], err = parseField(record, timeCol, path, row); err != nil {
			return Series{}, err
		}
		if s.Phi[i], err = parseField(record, phiCol, path, row); err != nil {
			return Series{}, err
		}
		if hasPhi1d {
			if s.Phi1d[i], err = parseField(record, phi1dCol, path, row); err != nil {
				return Series{}, err
			}
		}
		if hasPhi2d {
			if s.Phi2d[i], err = parseField(record, phi2dCol, path, row); err != nil {
				return Series{}, err
			}
		}
	}

	if err := s.Validate(); err != nil {
		return Series{}, fmt.Errorf("motion: %s: %w", path, err)
	}
	return s, nil
}

// WriteCSV writes a record as CSV with full float precision, compressing
// when path ends in .gz. Derivative channels are written only when
// present.
func WriteCSV(path string, s Series) error {
	if err := s.Validate(); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	var writer io.Writer = file
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(file)
		writer = gz
	}

	w := csv.NewWriter(writer)

	header := []string{"time", "phi"}
	if s.Phi1d != nil {
		header = append(header, "phi1d")
	}
	if s.Phi2d != nil {
		header = append(header, "phi2d")
	}
	if err := w.Write(header); err != nil {
		file.Close()
		return err
	}

	for i := range s.T {
		row := []string{formatFloat(s.T[i]), formatFloat(s.Phi[i])}
		if s.Phi1d != nil {
			row = append(row, formatFloat(s.Phi1d[i]))
		}
		if s.Phi2d != nil {
			row = append(row, formatFloat(s.Phi2d[i]))
		}
		if err := w.Write(row); err != nil {
			file.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			file.Close()
			return err
		}
	}
	return file.Close()
}

func parseField(record []string, col int, path string, row int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
	if err != nil {
		return 0, fmt.Errorf("motion: %s row %d: %w", path, row, err)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
