package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const columnGap = "   "

// formatTable lays out a header, a dashed rule and the rows. Columns listed in
// rightAligned are padded on the left; the last column is otherwise left ragged.
// Every row is expected to have one cell per header.
func formatTable(headers []string, rows [][]string, rightAligned map[int]bool) []string {
	widths := make([]int, len(headers))
	rule := make([]string, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
		for _, row := range rows {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
		rule[i] = strings.Repeat("-", widths[i])
	}

	lines := []string{
		joinCells(headers, widths, rightAligned),
		joinCells(rule, widths, rightAligned),
	}
	for _, row := range rows {
		lines = append(lines, joinCells(row, widths, rightAligned))
	}
	return lines
}

func joinCells(cells []string, widths []int, rightAligned map[int]bool) string {
	last := len(cells) - 1
	padded := make([]string, len(cells))
	for i, cell := range cells {
		switch {
		case rightAligned[i]:
			padded[i] = runewidth.FillLeft(cell, widths[i])
		case i == last:
			padded[i] = cell
		default:
			padded[i] = runewidth.FillRight(cell, widths[i])
		}
	}
	return strings.Join(padded, columnGap)
}
