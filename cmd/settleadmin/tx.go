package main

import (
	"github.com/urfave/cli/v2"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/internal/settleapi"
)

var (
	txCommand = &cli.Command{
		Action:    getTransaction,
		Name:      "tx",
		Usage:     "show transaction status",
		ArgsUsage: "<id>",
		Description: `
query transaction status and failure reason by transaction id
`,
		Flags: commonAdminFlags,
	}

	depositCommand = &cli.Command{
		Action:    getDeposit,
		Name:      "deposit",
		Usage:     "show transaction status by deposit reference",
		ArgsUsage: "<depositRef>",
		Flags:     commonAdminFlags,
	}
)

func getTransaction(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	if err := checkNArg(ctx, "tx", 1); err != nil {
		return err
	}
	var info settleapi.TxStatusInfo
	if err := settleCall(ctx, &info, "GetTransaction", ctx.Args().First()); err != nil {
		return err
	}
	return printResult(&info)
}

func getDeposit(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	if err := checkNArg(ctx, "deposit", 1); err != nil {
		return err
	}
	var info settleapi.TxStatusInfo
	if err := settleCall(ctx, &info, "GetTransactionByDepositRef", ctx.Args().First()); err != nil {
		return err
	}
	return printResult(&info)
}
