package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/partsbin/partsbin/internal/component"
)

// leadFields open the details table in this order; the rest follow sorted.
var leadFields = []string{
	component.FieldID,
	component.FieldType,
	component.FieldValue,
	component.FieldQty,
	component.FieldQuantity,
	component.FieldPartNumber,
	component.FieldPackage,
	component.FieldManufacturer,
	component.FieldPrice,
}

// ComponentMarkdown describes a record as a markdown document: a title,
// the description, and a table of every other field.
func ComponentMarkdown(c component.Component) string {
	var sb strings.Builder

	title := strings.TrimSpace(strings.Join([]string{c.String(component.FieldValue), c.Type()}, " "))
	if title == "" {
		title = "Component"
	}
	fmt.Fprintf(&sb, "# %s\n\n", escapeCell(title))

	if d := c.String(component.FieldDescription); d != "" {
		fmt.Fprintf(&sb, "%s\n\n", d)
	}

	sb.WriteString("| Field | Value |\n|---|---|\n")

	done := map[string]bool{component.FieldDescription: true}
	row := func(k string) {
		if done[k] {
			return
		}
		done[k] = true
		if _, ok := c[k]; !ok {
			return
		}
		fmt.Fprintf(&sb, "| %s | %s |\n", escapeCell(k), escapeCell(c.String(k)))
	}

	for _, k := range leadFields {
		row(k)
	}
	rest := make([]string, 0, len(c))
	for k := range c {
		if !done[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		row(k)
	}

	return sb.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// RenderMarkdown renders markdown content for the terminal using glamour.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(content)
}
