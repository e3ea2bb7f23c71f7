package main

import (
	"os"

	"github.com/jobsourcing/match-scorer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
