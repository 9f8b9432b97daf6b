package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ganot/parley/internal/domain/actor"
	"github.com/ganot/parley/internal/domain/user"
	"github.com/spf13/cobra"
)

func init() {
	userAddCmd.Flags().String("id", "", "user id (generated when empty)")
	userAddCmd.Flags().String("name", "", "display name")
	userAddCmd.Flags().String("role", "", "admin, client or freelancer")
	_ = userAddCmd.MarkFlagRequired("name")
	_ = userAddCmd.MarkFlagRequired("role")

	tokenIssueCmd.Flags().String("description", "", "note stored with the token")

	userCmd.AddCommand(userAddCmd, userListCmd)
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(userCmd, tokenCmd)
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		name, _ := cmd.Flags().GetString("name")
		roleName, _ := cmd.Flags().GetString("role")
		role, err := actor.ParseRole(roleName)
		if err != nil {
			return err
		}

		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		u, err := a.Users.Create(cmd.Context(), user.CreateRequest{ID: id, DisplayName: name, Role: role})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", u.Role, u.ID, u.DisplayName)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		users, err := a.Users.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tROLE\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.DisplayName, u.Role, humanize.Time(u.CreatedAt))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s users\n", humanize.Comma(int64(len(users))))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage access tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <user-id>",
	Short: "Issue a bearer token for a user; the token is shown once",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		token, err := a.Users.IssueToken(cmd.Context(), args[0], description)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		if description == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "hint: use --description to label tokens")
		}
		return nil
	},
}
