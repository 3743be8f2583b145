package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (cli *commandLine) deleteUserCmd() *cobra.Command {
	var uname string

	cmd := &cobra.Command{
		Use:   "deleteuser",
		Short: "Delete a user with its student profile, attendance and assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uname == "" {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.deleteUser(cmd.Context(), uname)
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "the user's username")
	return cmd
}

func (cli *commandLine) deleteUser(ctx context.Context, uname string) error {
	usr, err := cli.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = cli.usrSvc.Delete(ctx, usr.ID); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "deleted %q\n", usr.Username)
	return nil
}
