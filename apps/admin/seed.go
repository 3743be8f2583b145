package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trezcool/shule/storage/database"
)

func (cli *commandLine) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo teacher, librarian and student accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := database.Seed(cmd.Context(), cli.usrSvc)
			if len(res.Created) > 0 {
				fmt.Fprintf(cli.out, "created: %s\n", strings.Join(res.Created, ", "))
			}
			if len(res.Existing) > 0 {
				fmt.Fprintf(cli.out, "already existing: %s\n", strings.Join(res.Existing, ", "))
			}
			return err
		},
	}
}
