package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func init() {
	InitializeLogger(zerolog.InfoLevel, false)
}

// Populated by ldflags
var (
	version            string
	buildUnixTimestamp string
	commitHash         string
)

func main() {
	ts, _ := strconv.ParseInt(buildUnixTimestamp, 10, 64)
	buildInfo := BuildInfo{
		Version: version,
		Commit:  commitHash,
		BuiltAt: time.Unix(ts, 0).UTC(),
	}

	flags := pflag.NewFlagSet("cyclist", pflag.ExitOnError)
	versionFlag := flags.Bool("version", false, "Print version")
	configFlag := flags.StringP("config", "c", "", "Path to the TOML config file (default $HOME/"+ConfigFileName+")")
	verboseFlag := flags.BoolP("verbose", "v", false, "Enable debug logging")
	systemdFlag := flags.Bool("systemd", false, "Print systemd service file")
	userFlag := flags.String("user", "pi", "User the systemd service runs as")
	flags.Parse(os.Args[1:])

	if *versionFlag {
		fmt.Println("Cyclist version:", buildInfo.Version)
		fmt.Println("Built on:", buildInfo.BuiltAt)
		fmt.Println("Commit hash:", buildInfo.Commit)
		return
	}

	if *systemdFlag {
		path, err := os.Executable()
		if err != nil {
			log.Fatal().Err(err).Msg("Locating executable failed")
		}
		err = WriteSystemdServiceFile(os.Stdout, CyclistServiceParams{
			BinaryPath: path,
			ConfigPath: *configFlag,
			User:       *userFlag,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Writing service file failed")
		}
		return
	}

	config, err := NewConfig(newCyclistOSFS(), Flags{
		ConfigPath: *configFlag,
		Verbose:    *verboseFlag,
	}, os.Getenv)
	if err != nil {
		log.Fatal().Err(err).Msg("Config initialization failed")
	}
	InitializeLogger(config.LogLevel(), config.NoColor())

	log.Info().
		Str("version", buildInfo.Version).
		Str("build_timestamp", buildInfo.BuiltAt.Format(time.RFC3339)).
		Str("commit_hash", buildInfo.Commit).
		Str("config", config.Path()).
		Msg("Initializing Cyclist")

	metrics := NewMetrics()
	registry := NewRegistry(config, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := StartServer(ctx, config, NewRouter(registry, metrics, buildInfo)); err != nil {
		log.Err(err).Msg("Server closed with error")
		os.Exit(1)
	}
}
