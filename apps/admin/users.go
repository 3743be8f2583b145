package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/trezcool/shule/core/user"
)

func (cli *commandLine) usersCmd() *cobra.Command {
	var filter user.QueryFilter
	var role string
	var inactive, active bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != "" {
				r, err := user.ParseRole(role)
				if err != nil {
					return err
				}
				filter.Role = r
			}
			switch {
			case active && inactive:
				_ = cmd.Usage()
				return errHelp
			case active, inactive:
				filter.IsActive = &active
			}
			return cli.listUsers(cmd.Context(), &filter)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&filter.Search, "search", "", "match username, email or names")
	flags.StringVar(&role, "role", "", "teacher, student or librarian")
	flags.BoolVar(&active, "active", false, "only active users")
	flags.BoolVar(&inactive, "inactive", false, "only inactive users")
	return cmd
}

func (cli *commandLine) listUsers(ctx context.Context, filter *user.QueryFilter) error {
	users, err := cli.usrSvc.Query(ctx, filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROLE\tSTUDENT ID\tSTAFF\tACTIVE\tLAST LOGIN")
	for _, usr := range users {
		var studentID, lastLogin string
		if usr.Student != nil {
			studentID = usr.Student.StudentID.String
		}
		if usr.LastLogin.Valid {
			lastLogin = usr.LastLogin.Time.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t%t\t%s\n",
			usr.ID, usr.Username, usr.FullName(), usr.Role.DisplayName(), studentID, usr.IsStaff, usr.IsActive, lastLogin)
	}
	return w.Flush()
}
