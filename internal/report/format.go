package report

import (
	"math"
	"strconv"

	"github.com/nao1215/vitals/internal/model"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}

// formatDelta renders a signed score difference rounded to four decimals.
func formatDelta(d float64) string {
	d = math.Round(d*1e4) / 1e4
	s := strconv.FormatFloat(d, 'f', -1, 64)
	if d > 0 {
		return "+" + s
	}
	if d == 0 {
		return "±0"
	}
	return s
}

// formatChange renders "previous -> current (delta)" for one category.
func formatChange(prev, cur, delta *float64) string {
	if prev == nil && cur == nil {
		return model.NotAvailable
	}
	s := model.FormatMetric(prev) + " -> " + model.FormatMetric(cur)
	if delta != nil {
		s += " (" + formatDelta(*delta) + ")"
	}
	return s
}
