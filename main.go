package main

import (
	"os"

	"github.com/ringflowhq/ringflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
