// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"bytes"
	"text/template"
	"time"
)

var readmeTemplate = template.Must(template.New("README.md").Parse(`# Custom Recipe Pack

This pack contains {{ .Total }} duplication recipes organized by category.

## Folder Structure:
- ores/ - Ore-related items
- metals/ - Ingots and metal items
- wood/ - Wood and wooden items
- stone/ - Stone and rock items
- gems/ - Precious gems and crystals
- food/ - Food and consumable items
- misc/ - Everything else

## Items per category:
{{ range .Counts }}- {{ .Name }}/: {{ .Count }}
{{ end }}
## Installation:
Place the recipe files in your Minecraft data folder according to your needs.

Generated on: {{ .Generated }}
Total items: {{ .Total }}
`))

type categoryCount struct {
	Name  string
	Count int
}

func renderReadme(items []string, now time.Time) ([]byte, error) {
	counts := make(map[string]int)
	for _, it := range items {
		counts[Category(it)]++
	}
	var rows []categoryCount
	for _, c := range Categories() {
		if n := counts[c]; n > 0 {
			rows = append(rows, categoryCount{Name: c, Count: n})
		}
	}

	var buf bytes.Buffer
	err := readmeTemplate.Execute(&buf, map[string]any{
		"Total":     len(items),
		"Counts":    rows,
		"Generated": now.Format(time.DateTime),
	})
	return buf.Bytes(), err
}
