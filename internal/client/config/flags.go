package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the backend server (default from Config)
//	-i int      sync poll interval in seconds (default from Config)
//	-dev string device identifier
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-dev"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Seconds()), "sync poll interval (in seconds)")
	fs.StringVar(&cfg.DeviceID, "dev", cfg.DeviceID, "device identifier")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
}
