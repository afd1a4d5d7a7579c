package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/urfave/cli/v2"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/internal/settleapi"
	"github.com/anyswap/CrossChain-Settlement/leveldb"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/mongodb"
	"github.com/anyswap/CrossChain-Settlement/params"
	rpcserver "github.com/anyswap/CrossChain-Settlement/rpc/server"
	"github.com/anyswap/CrossChain-Settlement/worker"
)

var (
	clientIdentifier = "settleserver"
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app = utils.NewApp(clientIdentifier, gitCommit, gitDate, "the settleserver command line interface")
)

type settleStore interface {
	worker.Store
	settleapi.Store
}

func initApp() {
	// Initialize the CLI app and start action
	app.Action = settleserver
	app.HideVersion = true // we have a command to print the version
	app.Copyright = "Copyright 2017-2021 The CrossChain-Settlement Authors"
	app.Commands = []*cli.Command{
		utils.VersionCommand,
	}
	app.Flags = []cli.Flag{
		utils.ConfigFileFlag,
		utils.LogFileFlag,
		utils.LogRotationFlag,
		utils.LogMaxAgeFlag,
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

func settleserver(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	if ctx.NArg() > 0 {
		return fmt.Errorf("invalid command: %q", ctx.Args().Get(0))
	}
	configFile := utils.GetConfigFilePath(ctx)
	config := params.LoadConfig(configFile)

	appCtx, cancel := utils.SignalContext()
	defer cancel()

	store, closeStore, err := openStore(appCtx, config)
	if err != nil {
		return err
	}
	defer closeStore()

	ws := worker.NewWorkers(config, store, clockwork.NewRealClock())
	scheduler, err := worker.StartWork(appCtx, config, ws)
	if err != nil {
		return err
	}

	err = params.WatchConfig(appCtx, configFile, func(newConfig *params.SettleConfig) {
		log.Info("config reloaded, new recovery sweeps use the new source gateway", "identifier", newConfig.Identifier)
	})
	if err != nil {
		log.Warn("watch config file failed", "file", configFile, "err", err)
	}

	time.Sleep(100 * time.Millisecond)
	svc := settleapi.NewService(store, ws.SrcGateway, ws.DestGateway)
	rpcserver.StartAPIServer(appCtx, svc)

	<-appCtx.Done()
	log.Info("settleserver is stopping, wait for running jobs")
	<-scheduler.Stop().Done()
	return nil
}

func openStore(ctx context.Context, config *params.SettleConfig) (settleStore, func(), error) {
	serverCfg := config.Server
	if dbConfig := serverCfg.MongoDB; dbConfig != nil {
		store, err := mongodb.Open(ctx, clientIdentifier, dbConfig.GetURLs(), dbConfig.DBName, dbConfig.UserName, dbConfig.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongodb failed: %w", err)
		}
		closeStore := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				log.Warn("close mongodb failed", "err", err)
			}
		}
		return store, closeStore, nil
	}
	dbConfig := serverCfg.LevelDB
	store, err := leveldb.OpenStore(dbConfig.Path, dbConfig.Cache, dbConfig.Handles)
	if err != nil {
		return nil, nil, fmt.Errorf("open leveldb failed: %w", err)
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Warn("close leveldb failed", "err", err)
		}
	}
	return store, closeStore, nil
}
