package main

import (
	"os"

	"github.com/cvinsight/cv-insight/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
