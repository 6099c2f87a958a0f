package main

import (
	"flag"
	"log"

	"github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/l1"
	env "github.com/robotalks/x10.go/pkg/l1/env/controller"
	"github.com/robotalks/x10.go/pkg/x10/controller"
)

var configFile string

func init() {
	env.SetControllerType(controller.Type, l1.ControllerMeta{Description: "X10 Power Line Transceiver"})
	env.SetupFlags()
	controller.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "TOML config file, flags take precedence.")
}

func main() {
	flag.Parse()
	if configFile != "" {
		if err := controller.LoadConfigFile(configFile); err != nil {
			log.Fatalln(err)
		}
	}

	conf := controller.NewConfig()
	tr := conf.MustNewTransceiver()
	defer tr.Close()

	envConf := env.NewConfig()
	envConf.Info.Meta.Labels = map[string]string{
		"driver": conf.Driver,
		"timing": tr.Profile().String(),
	}
	e := envConf.MustNewEnv()
	loop := framework.NewLoop().Add(e, conf.NewController(e, tr))
	if err := framework.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		log.Fatalln(err)
	}
}
