package main

import (
	"os"

	"github.com/Aleph-Alpha/recordkey/cmd/keyctl/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
