// Package main implements the command line of the wills. Every command runs a
// node on the local ledger database, executes and stops.
//
//	heirloom key new --save owner.key
//	heirloom --key owner.key ledger whoami
//	heirloom --key owner.key token issue --asset XLM
//	heirloom --key owner.key token mint --asset XLM --to ed25519:XX --amount 1000
//	heirloom --key owner.key will init --beneficiary ed25519:XX --period 86400\
//	  --asset XLM
//	heirloom --key owner.key will deposit --instance XX --amount 500
//	heirloom --key owner.key will checkin --instance XX
//	heirloom --key heir.key will claim --instance XX
package main

import (
	"fmt"
	"io"
	"os"

	"go.dedis.ch/heirloom/cli/node"
	token "go.dedis.ch/heirloom/contracts/token/controller"
	will "go.dedis.ch/heirloom/contracts/will/controller"
	ledger "go.dedis.ch/heirloom/core/ledger/controller"
	key "go.dedis.ch/heirloom/crypto/ed25519/command"
)

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, os.Stdout)
}

func runWithCfg(args []string, out io.Writer) error {
	builder := node.NewBuilderWithCfg(out,
		key.Initializer{},
		ledger.NewController(),
		token.NewController(),
		will.NewController(),
	)

	app := builder.Build()

	return app.Run(args)
}
