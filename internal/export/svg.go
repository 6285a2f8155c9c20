// Package export renders run traces as standalone SVG charts.
package export

import (
	"fmt"
	"strings"
)

// Series is one line of a chart.
type Series struct {
	Name   string
	Values []float64
	Color  string
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b bounds) pad() bounds {
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return bounds{
		minX: b.minX,
		maxX: b.minX + rangeX,
		minY: b.minY - rangeY*0.1,
		maxY: b.maxY + rangeY*0.1,
	}
}

// TraceToSVG draws every series against xs on shared axes. A nil xs plots
// against the sample index. Series shorter than two points are skipped.
func TraceToSVG(xs []float64, series []Series, width, height int) string {
	b, ok := seriesBounds(xs, series)
	if !ok {
		return ""
	}
	b = b.pad()

	x := func(i int) float64 {
		v := float64(i)
		if xs != nil {
			v = xs[i]
		}
		return (v - b.minX) / (b.maxX - b.minX) * float64(width)
	}
	y := func(v float64) float64 {
		return float64(height) - (v-b.minY)/(b.maxY-b.minY)*float64(height)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	if b.minY < 0 && b.maxY > 0 {
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444466" stroke-dasharray="4 4"/>
`, y(0), width, y(0)))
	}

	for _, s := range series {
		n := usable(xs, s)
		if n < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Color))
		for i := 0; i < n; i++ {
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x(i), y(s.Values[i])))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x(i), y(s.Values[i])))
			}
		}
		sb.WriteString(fmt.Sprintf(`"><title>%s</title></path>
`, s.Name))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func usable(xs []float64, s Series) int {
	n := len(s.Values)
	if xs != nil && len(xs) < n {
		n = len(xs)
	}
	return n
}

func seriesBounds(xs []float64, series []Series) (bounds, bool) {
	var b bounds
	found := false
	for _, s := range series {
		n := usable(xs, s)
		if n < 2 {
			continue
		}
		for i := 0; i < n; i++ {
			xv := float64(i)
			if xs != nil {
				xv = xs[i]
			}
			yv := s.Values[i]
			if !found {
				b = bounds{xv, xv, yv, yv}
				found = true
				continue
			}
			b.minX = min(b.minX, xv)
			b.maxX = max(b.maxX, xv)
			b.minY = min(b.minY, yv)
			b.maxY = max(b.maxY, yv)
		}
	}
	return b, found
}
