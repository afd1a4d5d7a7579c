package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/rpc/client"
	rpcserver "github.com/anyswap/CrossChain-Settlement/rpc/server"
)

var (
	settleServer string

	commonAdminFlags = []cli.Flag{
		utils.ServerURLFlag,
		utils.VerbosityFlag,
	}
)

func initSettleServer(ctx *cli.Context) error {
	settleServer = utils.GetServerURL(ctx)
	if settleServer == "" {
		return errors.New("must specify settle server")
	}
	return nil
}

func settleCall(ctx *cli.Context, result interface{}, method string, params ...interface{}) error {
	if err := initSettleServer(ctx); err != nil {
		return err
	}
	return client.RPCPost(ctx.Context, result, settleServer, rpcserver.RPCServiceName+"."+method, params...)
}

func checkNArg(ctx *cli.Context, command string, n int) error {
	if ctx.NArg() != n {
		_ = cli.ShowCommandHelp(ctx, command)
		fmt.Println()
		return fmt.Errorf("invalid arguments: %q", ctx.Args())
	}
	return nil
}

func printResult(result interface{}) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
