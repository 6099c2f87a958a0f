package controller

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	env "github.com/robotalks/x10.go/pkg/l1/env/controller"
	"github.com/robotalks/x10.go/pkg/x10"
)

const testConfig = `
[x10]
driver = "sim"
mains_frequency = 50
validation = "none"
drop_phantom_p16 = true
repeat = 3
edge_timeout = "250ms"

[x10.pins]
zero_cross = 4
indicator = 22

[controller]
id = "garage"
websocket = ":8010"
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "x10d.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	conf := NewConfig()
	envConf := &env.Config{MQTTBrokerURL: "mqtt://broker/x10/"}
	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.IntVar(&conf.Repeat, "repeat", conf.Repeat, "")
	flags.StringVar(&conf.Driver, "driver", conf.Driver, "")
	require.NoError(t, flags.Parse([]string{"-repeat", "5"}))

	require.NoError(t, loadConfigFile(writeConfig(t, testConfig), conf, envConf, flags))
	require.Equal(t, DriverSim, conf.Driver)
	require.Equal(t, 50, conf.MainsFrequency)
	require.Equal(t, 5, conf.Repeat)
	require.Equal(t, 250*time.Millisecond, conf.EdgeTimeout)
	require.Equal(t, 4, conf.Pins.ZeroCross)
	require.Equal(t, defaultConfig.Pins.Transmit, conf.Pins.Transmit)
	require.Equal(t, 22, conf.Pins.Indicator)
	require.True(t, conf.DropPhantomP16)
	require.Equal(t, "garage", envConf.Info.Ref.ID)
	require.Equal(t, ":8010", envConf.WebsocketAddr)
	require.Equal(t, "mqtt://broker/x10/", envConf.MQTTBrokerURL)

	opts, err := conf.Options()
	require.NoError(t, err)
	require.Equal(t, x10.Validation{DropPhantomP16: true}, opts.Validation)
	require.NotNil(t, opts.Profile)
	require.Equal(t, x10.Profile50Hz, *opts.Profile)
	require.Equal(t, 250*time.Millisecond, opts.EdgeTimeout)
}

func TestLoadConfigFileErrors(t *testing.T) {
	for name, content := range map[string]string{
		"syntax":   "[x10\n",
		"duration": "[x10]\nedge_timeout = \"soon\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			conf := NewConfig()
			require.Error(t, loadConfigFile(writeConfig(t, content), conf, &env.Config{}, nil))
		})
	}
	require.Error(t, loadConfigFile(filepath.Join(t.TempDir(), "missing.toml"), NewConfig(), &env.Config{}, nil))
}

func TestConfigOptions(t *testing.T) {
	conf := NewConfig()
	opts, err := conf.Options()
	require.NoError(t, err)
	require.Equal(t, x10.StrictValidation, opts.Validation)
	require.Nil(t, opts.Profile)

	conf.Validation = "paranoid"
	_, err = conf.Options()
	require.Error(t, err)

	conf = NewConfig()
	conf.MainsFrequency = 55
	_, err = conf.Options()
	require.Error(t, err)

	conf = NewConfig()
	conf.Driver = "parallel-port"
	_, _, err = conf.OpenLine()
	require.Error(t, err)
}

func TestConfigSimTransceiver(t *testing.T) {
	conf := NewConfig()
	conf.Driver = DriverSim
	conf.SimFrequency = 50
	tr, err := conf.NewTransceiver()
	require.NoError(t, err)
	defer tr.Close()
	require.Equal(t, x10.Profile50Hz, tr.Profile())
	require.NoError(t, tr.SendCommand(x10.HouseE, 7, x10.On, 1))
	cmd, ok := tr.Take()
	require.True(t, ok)
	require.Equal(t, x10.UnitCode(7), cmd.Unit)
}
