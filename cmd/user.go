package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"journal/core"
	"journal/logger"

	"github.com/gosuri/uitable"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

var userPassword string

var userCmd = &cobra.Command{
	Use:     "user",
	Short:   "Manage journal accounts",
	Aliases: []string{"u"},
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a new account",
	Long:  `Registers an account. The password is read from --password or, when omitted, from the first line of stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := userPassword
		if password == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password from stdin: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		auth := do.MustInvoke[*core.AuthService](injector)
		user, err := auth.Register(cmd.Context(), args[0], password)
		if err != nil {
			logger.Error("user add: %v", err)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (ID: %d)\n", user.Username, user.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List accounts",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := do.MustInvoke[*core.AuthService](injector)
		users, err := auth.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No users registered.")
			return nil
		}
		tbl := uitable.New()
		tbl.AddRow("ID", "USERNAME", "CREATED")
		for _, u := range users {
			tbl.AddRow(u.ID, u.Username, u.CreatedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(cmd.OutOrStdout(), tbl)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "password for the new account (read from stdin when empty)")
	userCmd.AddCommand(userAddCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}
