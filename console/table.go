package console

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// Table is a titled table whose cells may hold markup.
type Table struct {
	Title     string
	IndexName string
	Headers   []string
	Index     []string
	Rows      [][]string
	ShowIndex bool
}

// PrintTable renders t below its title.
func (c *Console) PrintTable(t Table) error {
	if len(t.Rows) != len(t.Index) && t.ShowIndex {
		return fmt.Errorf("console: %d rows for %d index labels", len(t.Rows), len(t.Index))
	}

	if t.Title != "" {
		c.Print(t.Title)
	}

	w := tablewriter.NewWriter(c.out)
	w.SetAutoFormatHeaders(false)
	w.SetAlignment(tablewriter.ALIGN_LEFT)

	headers := t.Headers
	if t.ShowIndex {
		headers = append([]string{t.IndexName}, t.Headers...)
	}
	w.SetHeader(headers)

	for i, row := range t.Rows {
		cells := make([]string, 0, len(row)+1)
		if t.ShowIndex {
			cells = append(cells, Render(t.Index[i], c.useColor))
		}
		for _, cell := range row {
			cells = append(cells, Render(cell, c.useColor))
		}
		w.Append(cells)
	}
	w.Render()
	return nil
}
