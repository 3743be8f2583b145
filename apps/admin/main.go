package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
)

func main() {
	conf := core.NewConfig()

	logger, flush, err := logsvc.New(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}

	// set up DB
	repos, err := database.Connect(conf)
	if err != nil {
		flush()
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	validate := core.NewValidator()
	user.RegisterValidators(validate)

	// start CLI
	cli := commandLine{
		usrSvc: user.NewService(repos.Users, validate),
		out:    os.Stdout,
	}
	if repos.SQL != nil {
		cli.db = repos.SQL.DB
	}

	err = cli.run(os.Args)
	if err != nil && err != errHelp {
		logger.Error("admin command failed", err)
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
	}
	_ = repos.Close()
	flush()
	if err != nil {
		os.Exit(1)
	}
}

