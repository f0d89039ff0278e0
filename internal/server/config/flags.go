package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/medconb/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string       HTTP bind address (e.g., ":8000")
//	-d string       PostgreSQL DSN, empty for the in-memory store
//	-s string       password auth signing secret; enables auth.password
//	-t int          token validity, minutes
//	-cors string    comma-separated allowed origins
//	-assets string  static assets directory
//	-v string       version suffix
//	-debug          verbose logging
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-d", "-s", "-t", "-cors", "-assets", "-v"},
		"-debug",
	)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	secret := fs.String("s", config.PasswordSecret(), "password auth secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity duration (in minutes)")
	origins := fs.String("cors", strings.Join(config.CORSOrigins, ","), "allowed CORS origins, comma separated")
	fs.StringVar(&config.AssetsDir, "assets", config.AssetsDir, "static assets directory")
	fs.StringVar(&config.VersionSuffix, "v", config.VersionSuffix, "version suffix")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "debug mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			if *tokenValidity <= 0 {
				panic(fmt.Errorf("token validity must be positive, got %d minutes", *tokenValidity))
			}
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		case "s":
			config.PasswordAuth = &PasswordAuth{Secret: *secret}
		case "cors":
			config.CORSOrigins = splitOrigins(*origins)
		}
	})
}

func splitOrigins(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
