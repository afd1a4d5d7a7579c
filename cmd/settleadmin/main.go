package main

import (
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/log"
)

var (
	clientIdentifier = "settleadmin"
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app = utils.NewApp(clientIdentifier, gitCommit, gitDate, "the settleadmin command line interface")
)

func initApp() {
	app.HideVersion = true // we have a command to print the version
	app.Copyright = "Copyright 2017-2021 The CrossChain-Settlement Authors"
	app.Commands = []*cli.Command{
		statsCommand,
		txCommand,
		depositCommand,
		serverInfoCommand,
		utils.VersionCommand,
	}
	app.Flags = []cli.Flag{
		utils.VerbosityFlag,
		utils.JSONFormatFlag,
		utils.ColorFormatFlag,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
}

func main() {
	initApp()
	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
