package cmd

import (
	"fmt"
	"strconv"

	"journal/core"
	"journal/database"
	"journal/logger"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

var (
	entryPage   int
	entryLimit  int
	entryAuthor string
	entryTagSet string
	entryActAs  string
)

var entryCmd = &cobra.Command{
	Use:     "entry",
	Short:   "Browse and retag journal entries",
	Aliases: []string{"e"},
}

var entryListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List entries, newest first",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		journal := do.MustInvoke[*core.JournalService](injector)

		var (
			page core.EntryPage
			err  error
		)
		if entryAuthor != "" {
			store := do.MustInvoke[*database.Store](injector)
			user, lookupErr := store.GetUserByUsername(cmd.Context(), entryAuthor)
			if lookupErr != nil {
				return lookupErr
			}
			page, err = journal.ListUserEntries(cmd.Context(), user.ID, entryPage, entryLimit)
		} else {
			page, err = journal.ListEntries(cmd.Context(), entryPage, entryLimit)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printTitle(out, "Entries", page.TotalRecords)
		printEntryTable(out, page.Entries)
		if pages := page.TotalPages(); pages > 1 {
			_, _ = faint.Fprintf(out, "page %d of %d\n", page.Page, pages)
		}
		return nil
	},
}

var entryShowCmd = &cobra.Command{
	Use:   "show <entry-id>",
	Short: "Show one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry ID %q", args[0])
		}
		detail, err := do.MustInvoke[*core.JournalService](injector).GetEntry(cmd.Context(), entryID)
		if err != nil {
			return err
		}
		printEntry(cmd.OutOrStdout(), detail.EntryWithTags)
		return nil
	},
}

var entryTagsCmd = &cobra.Command{
	Use:   "tags <entry-id>",
	Short: "Show or replace the tags of an entry",
	Long: `Without --set, prints the entry's tags. With --set, replaces them with the given
comma separated list; --set "" removes every tag. With --as the change is made on behalf
of that user, who must own the entry; without it the operator retags directly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry ID %q", args[0])
		}
		out := cmd.OutOrStdout()
		journal := do.MustInvoke[*core.JournalService](injector)

		if !cmd.Flags().Changed("set") {
			detail, err := journal.GetEntry(cmd.Context(), entryID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, tagList(detail.Tags))
			return nil
		}

		var result *core.ReconcileResult
		if entryActAs != "" {
			store := do.MustInvoke[*database.Store](injector)
			user, err := store.GetUserByUsername(cmd.Context(), entryActAs)
			if err != nil {
				return err
			}
			_, result, err = journal.EditEntry(cmd.Context(), user.ID, entryID, nil, &entryTagSet)
			if err != nil {
				logger.Error("entry tags: %v", err)
				return err
			}
		} else {
			result, err = do.MustInvoke[*core.AssociationManager](injector).Reconcile(cmd.Context(), entryID, entryTagSet)
			if err != nil {
				logger.Error("entry tags: %v", err)
				return err
			}
		}
		fmt.Fprintf(out, "added: %v\nremoved: %v\nunchanged: %v\n", result.Added, result.Removed, result.Unchanged)
		return nil
	},
}

func init() {
	entryListCmd.Flags().IntVar(&entryPage, "page", 1, "page number")
	entryListCmd.Flags().IntVar(&entryLimit, "limit", 0, "entries per page (default from ui.page_size)")
	entryListCmd.Flags().StringVar(&entryAuthor, "user", "", "only list entries written by this username")
	entryTagsCmd.Flags().StringVar(&entryTagSet, "set", "", "comma separated tag names to apply")
	entryTagsCmd.Flags().StringVar(&entryActAs, "as", "", "username performing the change")

	entryCmd.AddCommand(entryListCmd, entryShowCmd, entryTagsCmd)
	rootCmd.AddCommand(entryCmd)
}
