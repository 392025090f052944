package main

import (
	"os"

	"github.com/paperchat/paperchat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
