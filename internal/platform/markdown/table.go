package markdown

import "strings"

// Table renders a pipe table. Cells are flattened to one line and pipes
// are escaped; short rows are padded with empty cells.
func Table(header []string, rows [][]string) string {
	var sb strings.Builder
	writeRow(&sb, header, len(header))
	sb.WriteString("|")
	for range header {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")
	for _, row := range rows {
		writeRow(&sb, row, len(header))
	}
	return sb.String()
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func writeRow(sb *strings.Builder, cells []string, width int) {
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		cell := ""
		if i < len(cells) {
			cell = cellEscaper.Replace(cells[i])
		}
		sb.WriteString(" " + cell + " |")
	}
	sb.WriteString("\n")
}
