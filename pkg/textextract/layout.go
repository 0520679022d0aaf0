package textextract

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// rowTolerance is the Y distance within which glyph runs belong to
	// the same line.
	rowTolerance = 3.0
	// wordGapFactor is the fraction of the font size below which the gap
	// between runs is intra-word spacing.
	wordGapFactor = 0.3
	// columnBucket is the X bucket width used to find aligned column
	// starts.
	columnBucket = 5.0
)

// Layout rebuilds reading order from glyph positions and reconstructs
// tables from aligned runs of words. Detected tables are appended after
// the page text as pipe-delimited rows under a [Table N] marker, numbered
// per page.
type Layout struct{}

func (Layout) Name() string { return "layout" }

func (Layout) Extract(ctx context.Context, data []byte) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("parse PDF: %v", p)
		}
	}()

	reader, err := open(data)
	if err != nil {
		return "", err
	}

	var parts []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if pageText := layoutPage(reader.Page(i)); pageText != "" {
			parts = append(parts, pageText)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

type word struct {
	x, width, size float64
	text           string
}

func layoutPage(page pdf.Page) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	if page.V.IsNull() {
		return ""
	}

	rows := groupRows(page.Content().Text)
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(rowText(row))
	}

	for i, table := range detectTables(rows) {
		b.WriteByte('\n')
		b.WriteString(formatTable(i+1, table))
		b.WriteByte('\n')
	}

	return strings.TrimSpace(b.String())
}

// groupRows clusters glyph runs into lines by Y position, top of the page
// first, and merges the runs on each line into words.
func groupRows(texts []pdf.Text) [][]word {
	type bucket struct {
		yMin, yMax float64
		runs       []pdf.Text
	}

	var buckets []bucket
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		placed := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-rowTolerance && t.Y <= buckets[i].yMax+rowTolerance {
				buckets[i].runs = append(buckets[i].runs, t)
				buckets[i].yMin = math.Min(buckets[i].yMin, t.Y)
				buckets[i].yMax = math.Max(buckets[i].yMax, t.Y)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{yMin: t.Y, yMax: t.Y, runs: []pdf.Text{t}})
		}
	}

	// PDF user space puts the origin at the bottom left, so higher Y
	// means higher on the page.
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].yMax > buckets[j].yMax })

	rows := make([][]word, 0, len(buckets))
	for _, bk := range buckets {
		sort.SliceStable(bk.runs, func(i, j int) bool { return bk.runs[i].X < bk.runs[j].X })
		rows = append(rows, mergeRuns(bk.runs))
	}
	return rows
}

// mergeRuns joins adjacent glyph runs into words wherever the horizontal
// gap is below wordGapFactor of the font size.
func mergeRuns(runs []pdf.Text) []word {
	var words []word
	var cur *word
	for _, r := range runs {
		if cur != nil {
			threshold := wordGapFactor * cur.size
			if cur.size == 0 {
				threshold = 3.0
			}
			if r.X-(cur.x+cur.width) <= threshold {
				cur.text += r.S
				cur.width = r.X + r.W - cur.x
				continue
			}
			words = append(words, *cur)
		}
		cur = &word{x: r.X, width: r.W, size: r.FontSize, text: r.S}
	}
	if cur != nil {
		words = append(words, *cur)
	}
	return words
}

func rowText(row []word) string {
	parts := make([]string, len(row))
	for i, w := range row {
		parts[i] = w.text
	}
	return strings.Join(parts, " ")
}

// detectTables finds maximal runs of consecutive multi-word lines and
// turns each run whose words line up into at least two columns into a
// grid of cells.
func detectTables(rows [][]word) [][][]string {
	var tables [][][]string
	start := -1
	for i := 0; i <= len(rows); i++ {
		tabular := i < len(rows) && len(rows[i]) >= 2
		if tabular && start < 0 {
			start = i
		}
		if !tabular && start >= 0 {
			if i-start >= 2 {
				if table := buildTable(rows[start:i]); table != nil {
					tables = append(tables, table)
				}
			}
			start = -1
		}
	}
	return tables
}

// buildTable derives column positions from word starts that align across
// at least half the region's lines, then assigns every word to the column
// whose span contains it. It returns nil when fewer than two columns line
// up.
func buildTable(region [][]word) [][]string {
	counts := make(map[int]int)
	for _, row := range region {
		seen := make(map[int]bool)
		for _, w := range row {
			k := int(w.x / columnBucket)
			if !seen[k] {
				seen[k] = true
				counts[k]++
			}
		}
	}

	need := (len(region) + 1) / 2
	if need < 2 {
		need = 2
	}
	var keys []int
	for k, c := range counts {
		if c >= need {
			keys = append(keys, k)
		}
	}
	if len(keys) < 2 {
		return nil
	}
	sort.Ints(keys)

	cols := make([]float64, len(keys))
	for i, k := range keys {
		cols[i] = float64(k) * columnBucket
	}

	cells := make([][]string, len(region))
	for r, row := range region {
		cells[r] = make([]string, len(cols))
		for _, w := range row {
			c := columnFor(cols, w.x)
			if cells[r][c] != "" {
				cells[r][c] += " "
			}
			cells[r][c] += w.text
		}
	}
	return cells
}

// columnFor returns the column whose span contains x. Column c spans from
// just left of its start to the start of column c+1; words left of the
// first column fold into it.
func columnFor(cols []float64, x float64) int {
	for c := len(cols) - 1; c >= 0; c-- {
		if x >= cols[c]-columnBucket {
			return c
		}
	}
	return 0
}

// formatTable renders one table as pipe-delimited rows under a numbered
// marker. Empty cells are kept so column positions stay visible.
func formatTable(n int, rows [][]string) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, fmt.Sprintf("[Table %d]", n))
	for _, cells := range rows {
		lines = append(lines, strings.Join(cells, " | "))
	}
	return strings.Join(lines, "\n")
}
