// Package config handles the parsing and validation of application
// configuration from command-line arguments and environment variables.
package config

import (
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/masterstat/internal/logger"
	"github.com/woozymasta/masterstat/internal/vars"
)

// DefaultMasters are the well-known public QuakeWorld masters, queried when
// no master address is given.
var DefaultMasters = []string{
	"master.quakeworld.nu:27000",
	"master.quakeservers.net:27000",
	"qwmaster.ocrana.de:27000",
	"qwmaster.fodquake.net:27000",
}

// Config represents the complete application flags configuration.
type Config struct {
	Query   Query         `group:"Query Options" env-namespace:"MASTERSTAT"`
	Output  Output        `group:"Output Options" namespace:"output" env-namespace:"MASTERSTAT_OUTPUT"`
	Storage Storage       `group:"Storage Options" namespace:"db" env-namespace:"MASTERSTAT_DB"`
	GeoIP   GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"MASTERSTAT_GEOIP"`
	Logger  logger.Config `group:"Logger Options" namespace:"log" env-namespace:"MASTERSTAT_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`

	Args struct {
		Masters []string `positional-arg-name:"master" description:"Master server address (host:port)"`
	} `positional-args:"true"`
}

// Query holds master query configuration.
type Query struct {
	Masters []string      `short:"m" long:"master" env:"MASTERS" env-delim:"," description:"Master server address (host:port), may be repeated"`
	Timeout time.Duration `short:"t" long:"timeout" env:"TIMEOUT" description:"Per-master query timeout" default:"2s"`
	Watch   time.Duration `short:"w" long:"watch" env:"WATCH" description:"Re-query at this interval until interrupted (0 disables)"`
}

// Output holds report formatting configuration.
type Output struct {
	Format string `short:"f" long:"format" env:"FORMAT" description:"Report format" choice:"text" choice:"json" default:"text"`
	Path   string `short:"o" long:"path" env:"PATH" description:"Write report to file instead of stdout"`
}

// Storage holds the optional server history database configuration.
type Storage struct {
	Path  string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite history database (empty disables history)"`
	Prune time.Duration `long:"prune" env:"PRUNE" description:"Delete servers not seen within this duration (0 disables)"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file (empty disables country lookup)"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// Masters returns the effective master list: positional arguments first,
// then the -m/--master flags, then the built-in defaults.
func (c *Config) Masters() []string {
	if len(c.Args.Masters) > 0 {
		return c.Args.Masters
	}
	if len(c.Query.Masters) > 0 {
		return c.Query.Masters
	}

	return DefaultMasters
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the
// help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return &cfg
}
