package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hydrolab/rolldecay/internal/motion"
	"github.com/klauspost/compress/gzip"
)

type ExportData struct {
	RunMetadata
	Times   []float64 `json:"times"`
	Phi     []float64 `json:"phi"`
	PhiPred []float64 `json:"phi_pred"`
}

// ExportJSON writes a run's metadata and series as one indented JSON
// document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.LoadRun(runID)
	if err != nil {
		return err
	}
	observed, predicted, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Times:       observed.T,
		Phi:         observed.Phi,
		PhiPred:     predicted.Phi,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

const (
	svgWidth  = 900
	svgHeight = 320
)

// ExportSVG renders a run's observed and predicted roll angle as one
// SVG line plot. Both traces share a vertical range padded by 10% and
// a horizontal axis spanning the recorded time grid.
func (s *Store) ExportSVG(w io.Writer, runID string) error {
	meta, err := s.LoadRun(runID)
	if err != nil {
		return err
	}
	observed, predicted, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	lo, hi := observed.Phi[0], observed.Phi[0]
	for _, phi := range observed.Phi {
		if phi < lo {
			lo = phi
		}
		if phi > hi {
			hi = phi
		}
	}
	for _, phi := range predicted.Phi {
		if phi < lo {
			lo = phi
		}
		if phi > hi {
			hi = phi
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	hi += span * 0.1

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, svgWidth, svgHeight, svgWidth, svgHeight)

	if lo < 0 && hi > 0 {
		y := svgY(0, lo, hi)
		fmt.Fprintf(&sb, "<line x1=\"0\" y1=\"%.1f\" x2=\"%d\" y2=\"%.1f\" stroke=\"#333344\" stroke-width=\"1\"/>\n",
			y, svgWidth, y)
	}

	svgPath(&sb, observed, lo, hi, "#00ccff")
	svgPath(&sb, predicted, lo, hi, "#ffaa00")

	fmt.Fprintf(&sb, `<text x="8" y="16" fill="#00ccff" font-family="monospace" font-size="12">observed</text>
<text x="8" y="32" fill="#ffaa00" font-family="monospace" font-size="12">predicted %s (%s)</text>
</svg>
`, meta.Variant, meta.Method)

	_, err = io.WriteString(w, sb.String())
	return err
}

func svgPath(sb *strings.Builder, s motion.Series, lo, hi float64, stroke string) {
	if len(s.T) < 2 {
		return
	}
	t0 := s.T[0]
	span := s.T[len(s.T)-1] - t0
	if span == 0 {
		span = 1
	}
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i := range s.T {
		x := (s.T[i] - t0) / span * svgWidth
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, svgY(s.Phi[i], lo, hi))
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, svgY(s.Phi[i], lo, hi))
		}
	}
	sb.WriteString("\"/>\n")
}

func svgY(phi, lo, hi float64) float64 {
	return svgHeight - (phi-lo)/(hi-lo)*svgHeight
}

// ExportCSV streams a run's series file decompressed.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	if err := checkRunID(runID); err != nil {
		return err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer gz.Close()

	_, err = io.Copy(w, gz)
	return err
}
