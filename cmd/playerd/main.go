// Package main provides the player daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/videoview/internal/api/connect"
	"github.com/osa030/videoview/internal/app/backend"
	"github.com/osa030/videoview/internal/app/notification"
	"github.com/osa030/videoview/internal/app/playback"
	"github.com/osa030/videoview/internal/domain/media"
	"github.com/osa030/videoview/internal/infra/config"
	"github.com/osa030/videoview/internal/infra/logger"
)

var (
	app        = kingpin.New("playerd", "Headless video player daemon")
	configPath = app.Flag("config", "Path to config file (PLAYERD_* variables override it)").Default("").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listBackendsCmd = app.Command("list-backends", "List available decoder backends and exit")
)

func init() {
	app.Command("start", "Start the daemon (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listBackendsCmd.FullCommand() {
		fmt.Println("Available backends:")
		for _, t := range backend.Types() {
			fmt.Printf("  %s\n", t)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Format: cfg.Log.Format,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	if *configPath != "" {
		zlog.Info().Msgf("Loaded config from %s", *configPath)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Daemon error: %v", err)
		os.Exit(1)
	}
}

// run executes the main daemon logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := notification.NewManager()
	go notifier.Run(ctx)
	defer notifier.Close()

	controller, err := playback.NewController(
		playback.WithListener(notifier),
		playback.WithLogger(logger.For("fsm")),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create playback controller")
	}

	player, err := backend.NewPlayerFromConfig(cfg)
	if err != nil {
		return err
	}
	controller.Attach(player)
	defer controller.Detach()

	if err := preparePlayer(cfg, controller); err != nil {
		return err
	}

	svc := apiconnect.NewPlayerService(controller, notifier)
	var opts []connect.HandlerOption
	if cfg.AuthEnabled() {
		opts = append(opts, connect.WithInterceptors(apiconnect.NewAuthInterceptor(cfg.Server.Token)))
	} else {
		zlog.Warn().Msg("server.token is empty, control API is unauthenticated")
	}
	path, handler := svc.Handler(opts...)

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	controller.StopPlayback()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// end streams first so Shutdown does not wait on them
	svc.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Daemon stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")
	return nil
}

// preparePlayer applies the configured media and subtitle, and starts
// playback when autostart is set.
func preparePlayer(cfg *config.Config, controller *playback.Controller) error {
	if cfg.Player.Media == "" {
		zlog.Info().Msg("No media configured, waiting for SetMedia")
		return nil
	}

	m, err := media.Open(cfg.Player.Media)
	if err != nil {
		return errors.Wrap(err, "invalid player.media")
	}
	controller.SetMedia(m)
	zlog.Info().Msgf("Media: id=%s location=%s", m.ID, m.Location)

	if cfg.Player.Subtitle != "" {
		uri, err := media.SubtitleLocation(cfg.Player.Subtitle)
		if err != nil {
			return errors.Wrap(err, "invalid player.subtitle")
		}
		controller.SetSubtitle(uri)
	}

	if cfg.Player.Autostart {
		if err := controller.Start(); err != nil {
			return errors.Wrap(err, "failed to start playback")
		}
	}
	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
