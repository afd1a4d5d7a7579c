package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/internal/settleapi"
	"github.com/anyswap/CrossChain-Settlement/types"
)

var (
	statsCommand = &cli.Command{
		Action:    stats,
		Name:      "stats",
		Usage:     "show transaction counts by status",
		ArgsUsage: " ",
		Description: `
query the number of transactions in every status
`,
		Flags: commonAdminFlags,
	}

	serverInfoCommand = &cli.Command{
		Action:    serverInfo,
		Name:      "serverinfo",
		Usage:     "show server info",
		ArgsUsage: " ",
		Flags:     commonAdminFlags,
	}
)

func stats(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	if err := checkNArg(ctx, "stats", 0); err != nil {
		return err
	}
	var counts settleapi.StatusCounts
	if err := settleCall(ctx, &counts, "GetStatusCounts"); err != nil {
		return err
	}
	total := 0
	for _, status := range types.AllStatuses {
		count := counts[status.String()]
		total += count
		fmt.Printf("%-28s %d\n", status.String(), count)
	}
	fmt.Printf("%-28s %d\n", "Total", total)
	return nil
}

func serverInfo(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	if err := checkNArg(ctx, "serverinfo", 0); err != nil {
		return err
	}
	var info settleapi.ServerInfo
	if err := settleCall(ctx, &info, "GetServerInfo"); err != nil {
		return err
	}
	return printResult(&info)
}
