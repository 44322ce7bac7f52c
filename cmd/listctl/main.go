package main

import (
	"os"

	"listsync/cmd/listctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
