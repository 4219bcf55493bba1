package main

import (
	"fmt"
	"os"

	logging "github.com/ipfs/go-log/v2"

	"github.com/driftlattice/overlaysim/cmd/overlaysimd/cli"
)

func main() {
	logging.SetLogLevel("*", "info")

	if err := cli.NewCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
