package main

import (
	"fmt"

	"github.com/alecthomas/kong"
)

type versionCmd struct{}

func (cmd *versionCmd) Run(app *kong.Kong) error {
	fmt.Fprintln(app.Stdout, "chain", _version)
	app.Exit(0)
	return nil
}

type versionFlag bool

func (v versionFlag) BeforeReset(app *kong.Kong) error {
	return (*versionCmd)(nil).Run(app)
}
