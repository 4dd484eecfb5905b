package config

import (
	"flag"
	"os"
	"time"

	"github.com/wisespend/authcore/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-b string   store backend: memory, sqlite or postgres
//	-d string   PostgreSQL DSN
//	-f string   sqlite database file path
//	-s string   session token HMAC secret key
//	-i int      PBKDF2 iteration count
//	-t int      session timeout, minutes
//	-l int      lockout duration, minutes
//	-m int      max login attempts before lockout
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-d", "-f", "-s", "-i", "-t", "-l", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port for the HTTP API")
	fs.StringVar(&config.StoreBackend, "b", config.StoreBackend, "store backend (memory|sqlite|postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SQLitePath, "f", config.SQLitePath, "sqlite database file")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.IntVar(&config.KDFIterations, "i", config.KDFIterations, "PBKDF2 iteration count")

	sessionTimeout := fs.Int("t", int(config.SessionTimeout.Minutes()), "session timeout (in minutes)")
	lockoutDuration := fs.Int("l", int(config.LockoutDuration.Minutes()), "lockout duration (in minutes)")
	fs.IntVar(&config.MaxLoginAttempts, "m", config.MaxLoginAttempts, "max login attempts before lockout")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTimeout = time.Duration(*sessionTimeout) * time.Minute
	config.LockoutDuration = time.Duration(*lockoutDuration) * time.Minute
}
