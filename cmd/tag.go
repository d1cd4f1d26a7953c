package cmd

import (
	"fmt"

	"journal/core"

	"github.com/gosuri/uitable"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

var (
	tagPage  int
	tagLimit int
)

var tagCmd = &cobra.Command{
	Use:     "tag",
	Short:   "Browse tags",
	Aliases: []string{"t"},
}

var tagListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List every tag with the number of entries using it",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := do.MustInvoke[*core.JournalService](injector).ListTags(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(tags) == 0 {
			fmt.Fprintln(out, "No tags yet.")
			return nil
		}
		tbl := uitable.New()
		tbl.AddRow("ID", "NAME", "ENTRIES")
		for _, tag := range tags {
			tbl.AddRow(tag.ID, tagColor.Sprint(tag.Name), tag.EntryCount)
		}
		fmt.Fprintln(out, tbl)
		return nil
	},
}

var tagEntriesCmd = &cobra.Command{
	Use:   "entries <name>",
	Short: "List the entries carrying a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := do.MustInvoke[*core.JournalService](injector).ListEntriesByTag(cmd.Context(), args[0], tagPage, tagLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printTitle(out, "Tagged "+args[0], page.TotalRecords)
		printEntryTable(out, page.Entries)
		return nil
	},
}

func init() {
	tagEntriesCmd.Flags().IntVar(&tagPage, "page", 1, "page number")
	tagEntriesCmd.Flags().IntVar(&tagLimit, "limit", 0, "entries per page (default from ui.page_size)")
	tagCmd.AddCommand(tagListCmd, tagEntriesCmd)
	rootCmd.AddCommand(tagCmd)
}
