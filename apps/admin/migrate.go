package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var errNoSQLEngine = errors.New("migrations need a SQL database engine")

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command (up, down, status, redo, version...) against the embedded migrations",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			if cli.db == nil {
				return errNoSQLEngine
			}
			return cli.migrate(cmd, args)
		},
	}
}

func (cli *commandLine) migrate(cmd *cobra.Command, args []string) error {
	return gooseRunFunc(cmd.Context(), cli.db, args[0], args[1:]...)
}
