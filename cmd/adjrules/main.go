package main

import (
	"os"

	"github.com/solatis/adjrules/cmd/adjrules/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
