package main

import (
	"github.com/robotalks/x10.go/pkg/cli/sh"
	env "github.com/robotalks/x10.go/pkg/l1/env/connector"
	"github.com/robotalks/x10.go/pkg/x10/controller"

	_ "github.com/robotalks/x10.go/pkg/cli/cmds/x10"
)

//go-build: CGO_ENABLED=0

func init() {
	if env.Default().Ref.Type == "" {
		env.Default().Ref.Type = controller.Type
	}
	env.SetupFlags()
}

func main() {
	sh.Main()
}
