package main

import (
	"errors"
	"os"

	"github.com/yndnr/rudis-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		// The error reply has already been printed.
		if !errors.Is(err, command.ErrReply) {
			command.PrintError("%v", err)
		}
		os.Exit(1)
	}
}
