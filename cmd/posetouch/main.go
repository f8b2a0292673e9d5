package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/posetouch/internal/audio"
	"github.com/udisondev/posetouch/internal/config"
	"github.com/udisondev/posetouch/internal/db"
	"github.com/udisondev/posetouch/internal/game"
	"github.com/udisondev/posetouch/internal/pose"
	"github.com/udisondev/posetouch/internal/score"
	"github.com/udisondev/posetouch/internal/server"
	"github.com/udisondev/posetouch/internal/terminal"
	"github.com/udisondev/posetouch/internal/video"
)

// disposeTimeout bounds saving the final result after the game loop stops.
const disposeTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadEnvFile(); err != nil {
		return err
	}
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logOut := io.Writer(os.Stdout)
	if cfg.Mode == config.ModeTerminal {
		f, err := os.OpenFile(cfg.Terminal.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("posetouch starting", "mode", cfg.Mode, "log_level", cfg.LogLevel, "store", cfg.Store.Driver)

	defaults, err := cfg.Game.Configuration()
	if err != nil {
		return fmt.Errorf("game options: %w", err)
	}

	store, err := db.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening result store: %w", err)
	}
	var results *score.Manager
	if store != nil {
		defer store.Close()
		results = score.NewManager(store)
	}

	live := config.NewLive(defaults)
	switch cfg.Mode {
	case config.ModeTerminal:
		return runTerminal(ctx, cfg, live, results)
	default:
		return runServer(ctx, cfg, live, results)
	}
}

func runServer(ctx context.Context, cfg config.Config, live *config.Live, results *score.Manager) error {
	srv := server.New(server.Options{
		Config:   cfg.Server,
		Canvas:   cfg.Canvas.Bounds(),
		Grid:     cfg.Grid,
		Defaults: live,
		Results:  results,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting game server", "addr", cfg.Server.Addr())
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("game server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runTerminal(ctx context.Context, cfg config.Config, live *config.Live, results *score.Manager) error {
	regions, err := cfg.Grid.Regions()
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	app := terminal.New(screen, cfg.Canvas.Bounds(), live)

	var frames video.Source = video.NewBlank(cfg.Canvas.Width, cfg.Canvas.Height, nil)
	var poses pose.Source = app.Pointer()
	if cfg.Pose.Endpoint != "" {
		snap, err := video.NewSnapshot(cfg.Pose.SnapshotURL, nil, nil)
		if err != nil {
			return fmt.Errorf("camera snapshot source: %w", err)
		}
		defer snap.Close()
		client, err := pose.NewClient(pose.ClientConfig{
			Endpoint:       cfg.Pose.Endpoint,
			Timeout:        cfg.Pose.Timeout,
			FlipHorizontal: cfg.Pose.FlipHorizontal,
			JPEGQuality:    cfg.Pose.JPEGQuality,
		})
		if err != nil {
			return fmt.Errorf("pose client: %w", err)
		}
		frames = snap
		poses = pose.Merge(app.Pointer(), client)
		slog.Info("remote pose estimation enabled", "endpoint", cfg.Pose.Endpoint)
	}

	var cue game.Cue = game.NopCue{}
	if cfg.Audio.Enabled {
		player := audio.NewPlayer(cfg.Audio.SampleRate)
		if err := player.Init(); err != nil {
			slog.Warn("audio disabled", "error", err)
		} else {
			defer player.Close()
			cue = player
		}
	}

	pacer := game.NewTicker(cfg.Terminal.FrameInterval())
	defer pacer.Stop()

	sess, err := game.New(game.Options{
		Player:   cfg.Terminal.Player,
		Frames:   frames,
		Poses:    poses,
		Surface:  app.Surface(),
		Config:   live,
		Regions:  regions,
		Observer: app,
		Cue:      cue,
		Pacer:    pacer,
		Results:  results,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	app.Attach(sess)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Run(gctx)
	})
	g.Go(func() error {
		if err := sess.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("game loop: %w", err)
		}
		return nil
	})
	runErr := g.Wait()

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disposeTimeout)
	defer cancel()
	if res, err := sess.Dispose(dctx); err != nil {
		slog.Error("disposing session", "session", res.SessionID, "error", err)
	}

	if runErr != nil && !errors.Is(runErr, terminal.ErrQuit) {
		return runErr
	}
	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
