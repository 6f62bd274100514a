package main

import (
	"os"

	"github.com/jaehyun-dev/concord/cmd/concord/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
