package cmd

import (
	"fmt"
	"io"
	"strings"

	"journal/core"
	"journal/models"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

var (
	titleColor = color.New(color.Bold, color.Underline)
	faint      = color.New(color.Faint)
	tagColor   = color.New(color.FgHiYellow)
)

func printTitle(w io.Writer, title string, count int) {
	_, _ = titleColor.Fprint(w, title)
	switch count {
	case 1:
		_, _ = faint.Fprintln(w, " - 1 entry")
	default:
		_, _ = faint.Fprintf(w, " - %d entries\n", count)
	}
}

func namesOf(tags []models.Tag) []string {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}

func tagList(tags []models.Tag) string {
	return core.JoinTagNames(namesOf(tags))
}

func printEntryTable(w io.Writer, entries []models.EntryWithTags) {
	if len(entries) == 0 {
		_, _ = faint.Fprintln(w, " none")
		return
	}
	tbl := uitable.New()
	tbl.MaxColWidth = 48
	tbl.AddRow("ID", "DATE", "TITLE", "AUTHOR", "MINUTES", "TAGS")
	for _, e := range entries {
		tbl.AddRow(e.ID, e.Date.Format(models.DateLayout), e.Title, e.Username,
			fmt.Sprintf("%.0f", e.TimeSpent.Minutes()), tagColor.Sprint(tagList(e.Tags)))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func printEntry(w io.Writer, e models.EntryWithTags) {
	_, _ = titleColor.Fprintln(w, e.Title)
	tbl := uitable.New()
	tbl.Wrap = true
	tbl.MaxColWidth = 72
	tbl.AddRow("ID:", e.ID)
	tbl.AddRow("Author:", e.Username)
	tbl.AddRow("Date:", e.Date.Format(models.DateLayout))
	tbl.AddRow("Time spent:", fmt.Sprintf("%.0f minutes", e.TimeSpent.Minutes()))
	tbl.AddRow("Tags:", tagColor.Sprint(tagList(e.Tags)))
	tbl.AddRow("Resources:", strings.Join(e.Resources, "\n"))
	tbl.AddRow("Knowledge:", e.Knowledge)
	_, _ = fmt.Fprintln(w, tbl)
}
