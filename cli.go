package trafficlight

import "github.com/alecthomas/kong"

var Version = "current"

type CLI struct {
	Config  string           `help:"config file path or URL" short:"c" required:"true" default:"trafficlight.yaml"`
	Debug   bool             `help:"debug mode" short:"d" default:"false"`
	Seed    int64            `help:"random seed for phase intervals (0: use config)" default:"0"`
	Version kong.VersionFlag `help:"show version"`
}
