package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/dpshade/promptpad/internal/models"
	"github.com/dpshade/promptpad/internal/textutil"
)

const previewWidth = 48

// printTable renders records one per row. The selected record is starred.
func (c *CLI) printTable(records []models.PromptRecord, selectedID *int64) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(c.out, "No prompts found.")
		return
	}

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("TITLE"), bold.Sprint("PREVIEW"), bold.Sprint("RESPONSE"))
	for _, p := range records {
		id := strconv.FormatInt(p.ID, 10)
		if selectedID != nil && *selectedID == p.ID {
			id = "*" + id
		}
		response := dim.Sprint("-")
		if p.Response != "" {
			response = "yes"
		}
		tbl.AddRow(id, p.Title, c.preview(p.Content), response)
	}
	tbl.RightAlign(0)

	_, _ = fmt.Fprintln(c.out, tbl)
}

// printRecord renders one record with its response below
func (c *CLI) printRecord(p models.PromptRecord, raw bool) {
	label := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.AddRow(label.Sprint("ID:"), p.ID)
	tbl.AddRow(label.Sprint("Title:"), p.Title)
	_, _ = fmt.Fprintln(c.out, tbl)

	_, _ = fmt.Fprintln(c.out)
	_, _ = label.Fprintln(c.out, "Content:")
	_, _ = fmt.Fprintln(c.out, c.ctl.Format().Text(p.Content))

	if p.Response == "" {
		return
	}
	_, _ = fmt.Fprintln(c.out)
	_, _ = label.Fprintln(c.out, "Response:")
	c.printResponse(p.Response, raw)
}

func (c *CLI) preview(content string) string {
	return textutil.Truncate(textutil.CleanLine(c.ctl.Format().Text(content)), previewWidth)
}
