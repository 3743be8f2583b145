package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/shule/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var nu user.NewUser
	var role string

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user; the password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if nu.Username == "" || role == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd, "Enter password:")
			if err != nil {
				return err
			}
			confirm, err := cli.promptPassword(cmd, "Confirm password:")
			if err != nil {
				return err
			}
			nu.Role = user.Role(role)
			nu.Password, nu.PasswordConfirm = pwd, confirm
			return cli.addUser(cmd.Context(), nu)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&nu.Username, "username", "", "login name (letters, digits and underscores)")
	flags.StringVar(&nu.Email, "email", "", "email address")
	flags.StringVar(&role, "role", "", "teacher, student or librarian")
	flags.StringVar(&nu.FirstName, "first-name", "", "first name")
	flags.StringVar(&nu.LastName, "last-name", "", "last name")
	flags.BoolVar(&nu.IsStaff, "staff", false, "mark the user as staff")
	flags.StringVar(&nu.StudentID, "student-id", "", "school issued student id (students only)")
	flags.StringVar(&nu.DateOfBirth, "dob", "", "date of birth, YYYY-MM-DD (students only)")
	return cmd
}

func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) error {
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s %q (id %d)\n", usr.Role, usr.Username, usr.ID)
	return nil
}
