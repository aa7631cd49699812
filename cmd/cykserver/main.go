/*
Cykserver starts a CYK parse server and begins listening for new connections.

Usage:

	cykserver [flags]
	cykserver [flags] -l [[ADDRESS]:PORT]

Once started, the server will listen for HTTP requests and respond to them using
REST protocol. Clients store grammars, which are converted to Chomsky normal
form once, and then send input to check against them. By default, it will
listen on localhost:8080. This can be changed with the --listen/-l flag (or
config via environment var). The flag argument must be either a full address
with port, such as "192.168.0.2:6001", or just the IP address preceeded by a
colon, such as ":6001".

If a JWT token secret is not given, one will be automatically generated. As a
consequence, in this mode of operation all tokens are rendered invalid as soon
as the server shuts down. This is suitable for testing, but must be given via
either CLI flags or environment variable if running in production.

Flags take precedence over environment variables, which take precedence over
the config file.

The flags are:

	-v, --version
		Give the current version of the CYK parse server and then exit.

	-c, --config FILE
		Read settings from the given TOML file. Keys are listen, token_secret,
		database, unauth_delay_ms, max_tokens, admin, and admin_password. The
		last two name the admin account made at startup if it does not exist;
		they default to "admin" and "password". If not given, will default to
		the value of environment variable CYKPARSE_CONFIG.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, will default to the value of environment variable
		CYKPARSE_LISTEN_ADDRESS, and if that is not given, will default to
		localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are less than
		32 bytes in the secret, it will be repeated until it is. The maximum
		size is 64 bytes. If not given, will default to the value of environment
		variable CYKPARSE_TOKEN_SECRET. If no secret is specified or an empty
		secret is given, a random secret will be automatically generated.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of the following:
		inmem, sqlite. inmem has no further params. sqlite needs the path to the
		data director such as sqlite:path/to/db_dir. If not given, will default
		to the value of environment variable CYKPARSE_DATABASE. If no DB driver
		is specified, an in-memory database is automatically selected.

	--max-tokens N
		Reject parse requests with more than N tokens. Give a negative number
		for no limit. Defaults to 256.
*/
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/cykparse/internal/version"
	"github.com/dekarrin/cykparse/server"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "CYKPARSE_LISTEN_ADDRESS"
	EnvSecret = "CYKPARSE_TOKEN_SECRET"
	EnvDB     = "CYKPARSE_DATABASE"
	EnvConfig = "CYKPARSE_CONFIG"
)

var (
	flagVersion   = pflag.BoolP("version", "v", false, "Give the current version of the CYK parse server and then exit.")
	flagConfig    = pflag.StringP("config", "c", "", "Read settings from the given TOML file.")
	flagListen    = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret    = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB        = pflag.String("db", "", "Use the given DB connection string.")
	flagMaxTokens = pflag.Int("max-tokens", server.DefaultMaxTokens, "Reject parse requests with more than this many tokens.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (cykparse v%s)\n", version.ServerCurrent, version.Current)
		return
	}

	args := pflag.Args()

	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	// start from the config file, if any
	var fileCfg server.FileConfig
	cfgPath := os.Getenv(EnvConfig)
	if pflag.Lookup("config").Changed {
		cfgPath = *flagConfig
	}
	if cfgPath != "" {
		var err error
		fileCfg, err = server.LoadConfigFile(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not load config file: %s\n", err)
			os.Exit(1)
		}
	}
	cfg, err := fileCfg.Config()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config file: %s\n", err)
		os.Exit(1)
	}

	// get address info
	port := 0
	addr := ""
	listenAddr := fileCfg.Listen
	if env := os.Getenv(EnvListen); env != "" {
		listenAddr = env
	}
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr != "" {
		bindParts := strings.SplitN(listenAddr, ":", 2)
		if len(bindParts) != 2 {
			fmt.Fprintf(os.Stderr, "Listen address is not in ADDRESS:PORT or :PORT format.\nDo -h for help.\n")
			os.Exit(1)
		}

		addr = bindParts[0]
		port, err = strconv.Atoi(bindParts[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%q is not a valid port number.\nDo -h for help.\n", bindParts[1])
			os.Exit(1)
		}
	}

	// look at db connection string
	dbConnStr := os.Getenv(EnvDB)
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}
	if dbConnStr != "" {
		cfg.DB, err = server.ParseDBConnString(dbConnStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Not a valid DB string: %s\nDo -h for help.\n", err)
			os.Exit(1)
		}
	}

	if pflag.Lookup("max-tokens").Changed || cfg.MaxTokens == 0 {
		cfg.MaxTokens = *flagMaxTokens
	}

	// get token secret
	tokSecStr := string(cfg.TokenSecret)
	if env := os.Getenv(EnvSecret); env != "" {
		tokSecStr = env
	}
	if pflag.Lookup("secret").Changed {
		tokSecStr = *flagSecret
	}
	// was the secret given?
	if tokSecStr != "" {
		// if so, validate it
		tokSecret := []byte(tokSecStr)

		for len(tokSecret) < server.MinSecretSize {
			doubledTokSecret := make([]byte, len(tokSecret)*2)
			copy(doubledTokSecret, tokSecret)
			copy(doubledTokSecret[len(tokSecret):], tokSecret)
			tokSecret = doubledTokSecret
		}

		if len(tokSecret) > server.MaxSecretSize {
			// keys would be chopped at 64, so rather than the user thinking
			// they have more security by giving a longer key, refuse to start.
			fmt.Fprintf(os.Stderr, "Token secret is %d bytes, but it must be <= %d bytes\nDo -h for help.\n", len(tokSecret), server.MaxSecretSize)
			os.Exit(1)
		}
		cfg.TokenSecret = tokSecret
	} else {
		// use all 64 possible bytes if doing a generated secret
		cfg.TokenSecret = make([]byte, server.MaxSecretSize)
		_, err := rand.Read(cfg.TokenSecret)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err.Error())
			os.Exit(1)
		}

		// yell at the user bc they should know their secret might be bad
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	}

	// configuration complete, initialize the server
	cs, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	defer cs.Close()
	log.Printf("DEBUG Server initialized")

	// immediately create the admin account so there is someone who can make
	// the other accounts.
	adminName, adminPass := fileCfg.Admin, fileCfg.AdminPassword
	if adminName == "" {
		adminName = server.DefaultAdminUsername
	}
	if adminPass == "" {
		adminPass = "password"
	}
	created, err := cs.EnsureAdmin(context.Background(), adminName, adminPass)
	if err != nil {
		log.Printf("ERROR could not create initial admin account: %v", err)
		os.Exit(2)
	}
	if created {
		if fileCfg.AdminPassword == "" {
			log.Printf("WARN  Added initial admin account %q with password 'password'; change it before exposing the server", adminName)
		} else {
			log.Printf("INFO  Added initial admin account %q", adminName)
		}
	}

	// okay, now actually launch it
	log.Printf("INFO  Starting CYK parse server %s...", version.ServerCurrent)
	cs.ServeForever(addr, port)
}
