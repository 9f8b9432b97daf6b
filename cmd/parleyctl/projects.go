package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ganot/parley/internal/domain/project"
	"github.com/spf13/cobra"
)

func init() {
	projectAddCmd.Flags().String("id", "", "project id (generated when empty)")
	projectAddCmd.Flags().String("title", "", "project title")
	projectAddCmd.Flags().String("client", "", "client user id")
	projectAddCmd.Flags().String("freelancer", "", "freelancer user id")
	_ = projectAddCmd.MarkFlagRequired("title")
	_ = projectAddCmd.MarkFlagRequired("client")

	projectListCmd.Flags().String("user", "", "only projects this client or freelancer is assigned to")

	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectAssignCmd)
	rootCmd.AddCommand(projectCmd)
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		title, _ := cmd.Flags().GetString("title")
		clientID, _ := cmd.Flags().GetString("client")
		freelancerID, _ := cmd.Flags().GetString("freelancer")

		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		p, err := a.Projects.Create(cmd.Context(), project.CreateRequest{
			ID:           id,
			Title:        title,
			ClientID:     clientID,
			FreelancerID: freelancerID,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created project %s (%s)\n", p.ID, p.Title)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		var projects []project.Project
		if userID != "" {
			projects, err = a.Projects.ListForUser(cmd.Context(), userID)
		} else {
			projects, err = a.Projects.List(cmd.Context())
		}
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tCLIENT\tFREELANCER\tCREATED")
		for _, p := range projects {
			freelancer := p.FreelancerID
			if !p.HasFreelancer() {
				freelancer = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.ClientID, freelancer, humanize.Time(p.CreatedAt))
		}
		return w.Flush()
	},
}

var projectAssignCmd = &cobra.Command{
	Use:   "assign <project-id> <freelancer-id>",
	Short: "Assign a freelancer to a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		p, err := a.Projects.AssignFreelancer(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "assigned %s to %s\n", p.FreelancerID, p.ID)
		return nil
	},
}
