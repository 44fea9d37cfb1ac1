package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/forumsession/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string   base URL of the forum API
//	-t int      request timeout (in seconds)
//	-s string   credential storage path
//	-l string   log level
//	-g          enforce the navigation guard
//
// Only these flags are looked at (see flagx.FilterArgs); a parse error panics.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-t", "-s", "-l"}, "-g")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the forum API")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.StoragePath, "s", cfg.StoragePath, "credential storage path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.EnforceAuthGuard, "g", cfg.EnforceAuthGuard, "redirect unauthenticated navigation to protected pages")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// keep sub-second precision unless -t was given
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
