package prompt

import (
	"fmt"
	"strings"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/registry"
	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// FormatCollection renders a resolved collection as a text block: a
// heading followed by the rows in the collection's configured format.
// Empty row sets render a single "No data available" line so the model
// sees the absence rather than a dangling heading.
func FormatCollection(coll *registry.ResolvedCollection) string {
	var sb strings.Builder
	sb.WriteString("## ")
	sb.WriteString(coll.Label)
	sb.WriteString("\n")

	if len(coll.Rows) == 0 {
		sb.WriteString("No data available")
		return sb.String()
	}

	switch coll.Format {
	case models.FormatBulletList:
		sb.WriteString(formatBulletList(coll))
	case models.FormatPlainText:
		sb.WriteString(formatPlainText(coll))
	default:
		sb.WriteString(formatTable(coll))
	}
	return sb.String()
}

// formatTable renders a markdown pipe table. Newlines inside cell values
// are flattened to spaces to keep one row per line.
func formatTable(coll *registry.ResolvedCollection) string {
	var sb strings.Builder

	headers := make([]string, 0, len(coll.Fields))
	for _, f := range coll.Fields {
		headers = append(headers, f.Label)
	}
	sb.WriteString("| ")
	sb.WriteString(strings.Join(headers, " | "))
	sb.WriteString(" |\n|")
	for range coll.Fields {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")

	for _, row := range coll.Rows {
		cells := make([]string, 0, len(coll.Fields))
		for _, f := range coll.Fields {
			cells = append(cells, flattenCell(Stringify(row[f.Key])))
		}
		sb.WriteString("| ")
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString(" |\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatBulletList renders one bullet per item, the first field bolded as
// the item's label and the remaining fields inline after it.
func formatBulletList(coll *registry.ResolvedCollection) string {
	var sb strings.Builder
	for _, row := range coll.Rows {
		sb.WriteString("- ")
		if len(coll.Fields) > 0 {
			lead := flattenCell(Stringify(row[coll.Fields[0].Key]))
			sb.WriteString("**")
			sb.WriteString(lead)
			sb.WriteString("**")

			var rest []string
			for _, f := range coll.Fields[1:] {
				rest = append(rest, fmt.Sprintf("%s: %s", f.Label, flattenCell(Stringify(row[f.Key]))))
			}
			if len(rest) > 0 {
				sb.WriteString(": ")
				sb.WriteString(strings.Join(rest, "; "))
			}
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatPlainText renders a numbered list of "label: value | label:
// value" lines.
func formatPlainText(coll *registry.ResolvedCollection) string {
	var sb strings.Builder
	for i, row := range coll.Rows {
		pairs := make([]string, 0, len(coll.Fields))
		for _, f := range coll.Fields {
			pairs = append(pairs, fmt.Sprintf("%s: %s", f.Label, flattenCell(Stringify(row[f.Key]))))
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, strings.Join(pairs, " | ")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func flattenCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
