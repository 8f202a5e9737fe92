package main

import (
	"os"

	"github.com/okian/teamforge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Stderr.WriteString("teamforge: " + err.Error() + "\n")
		os.Exit(1)
	}
}
