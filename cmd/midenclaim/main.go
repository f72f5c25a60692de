// Command midenclaim runs the faucet claim scheduler.
package main

import (
	"os"

	"github.com/red-hand/midenclaim/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
