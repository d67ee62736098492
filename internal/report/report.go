package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hydrolab/rolldecay/internal/estimator"
)

// Shared styles for command output.
var (
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ccff"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	Value = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffffff"))

	Good = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ff88"))

	Warn = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffaa00"))

	Bad = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ff4444"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	sparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	sparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	sparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// FitReport renders a fit result as a styled block: status, score,
// the fitted coefficients sorted by name, and a sparkline of the
// residual magnitudes.
func FitReport(fit estimator.FitResult, score float64) string {
	var b strings.Builder

	b.WriteString(Header.Render(fmt.Sprintf("%s fit (%s)", fit.Variant, fit.Method)))
	b.WriteString("\n")

	status := Good.Render("converged")
	if !fit.Converged {
		status = Warn.Render("not converged")
	}
	b.WriteString(fmt.Sprintf("  %s  %s %s\n",
		Label.Render(pad("status")),
		status,
		Subtle.Render(fmt.Sprintf("(%d evaluations)", fit.Evaluations))))

	b.WriteString(fmt.Sprintf("  %s  %s\n", Label.Render(pad("score")), ScoreText(score)))

	if fit.Omega0Fixed {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			Label.Render(pad("frequency")),
			Subtle.Render("omega0 pinned to the spectral estimate")))
	}

	names := make([]string, 0, len(fit.Parameters))
	for name := range fit.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			Label.Render(pad(name)),
			Value.Render(fmt.Sprintf("%.6g", fit.Parameters[name]))))
	}

	if len(fit.Residuals) > 0 {
		mags := make([]float64, len(fit.Residuals))
		for i, r := range fit.Residuals {
			mags[i] = math.Abs(r)
		}
		b.WriteString(fmt.Sprintf("  %s  %s\n", Label.Render(pad("residual")), Sparkline(mags, 60)))
	}

	return b.String()
}

// ScoreText renders a coefficient of determination colored by quality.
func ScoreText(score float64) string {
	text := fmt.Sprintf("%.6f", score)
	switch {
	case score > 0.99:
		return Good.Render(text)
	case score > 0.9:
		return Warn.Render(text)
	default:
		return Bad.Render(text)
	}
}

// Sparkline renders values as a one line mini chart, min-max
// normalized. The low end of the range is colored green and the high
// end red.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		if idx >= len(chars) {
			idx = len(chars) - 1
		}
		if idx < 0 {
			idx = 0
		}

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(sparkHigh.Render(c))
		case norm > 0.3:
			b.WriteString(sparkMid.Render(c))
		default:
			b.WriteString(sparkLow.Render(c))
		}
	}
	return b.String()
}

func pad(label string) string {
	return fmt.Sprintf("%-10s", label)
}
