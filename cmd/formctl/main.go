package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/jwalitptl/formkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("Error: ")+err.Error())
		os.Exit(1)
	}
}
