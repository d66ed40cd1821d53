package main

import (
	"os"

	"pool-wizard/cmd/poolctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
