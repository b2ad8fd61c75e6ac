package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"framecheck/internal/cmdlog"
	"framecheck/internal/config"
	"framecheck/internal/frame"
	"framecheck/internal/gql"
	"framecheck/internal/logging"
	"framecheck/internal/reactions"
	"framecheck/internal/server"
	"framecheck/internal/theme"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "serve":
		cmdServe()
	case "check":
		cmdCheck()
	case "render":
		cmdRender()
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: framecheck <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./framecheck.yaml")
	fmt.Println("  serve       Run the frame server")
	fmt.Println("  check       Look up a viewer's interaction with a cast")
	fmt.Println("  render      Render a screen's panel image to a PNG file")
}

func fail(err error) {
	fmt.Println("error:", err)
	logging.Sync()
	os.Exit(1)
}

// loadConfig loads, validates and applies the log settings.
func loadConfig(path string) config.Config {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		fail(err)
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		fail(err)
	}
	return cfg
}

func newLooker(cfg config.Config) *reactions.Client {
	if cfg.API.Key == "" {
		fmt.Println("warning: missing FRAMECHECK_API_KEY; lookups will fail")
	}
	api := gql.NewHTTPClient(cfg.API.URL, cfg.API.Key,
		gql.WithTimeout(cfg.API.Timeout()),
		gql.WithLimiter(cfg.API.RPS, cfg.API.Burst),
		gql.WithRetry(cfg.API.MaxAttempts, cfg.API.Backoff()),
	)
	return reactions.New(api, cfg.API.Timeout())
}

func newServer(cfg config.Config) (*server.Server, *frame.Renderer) {
	var bg image.Image
	if ref := cfg.Frame.BackgroundImage; ref != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		img, err := frame.LoadBackground(ctx, ref, &http.Client{Timeout: 15 * time.Second})
		cancel()
		if err != nil {
			fail(fmt.Errorf("background image %s: %w", ref, err))
		}
		bg = img
	}
	renderer := frame.NewRenderer(cfg.Frame.ImageWidth, cfg.Frame.ImageHeight, bg)
	if cfg.Frame.SigningKey == "" {
		logging.Warn("signing_key_generated", map[string]any{"hint": "set FRAMECHECK_SIGNING_KEY so image URLs survive restarts"})
	}
	signer, err := frame.NewSigner([]byte(cfg.Frame.SigningKey))
	if err != nil {
		fail(err)
	}
	return server.New(cfg, newLooker(cfg), renderer, signer), renderer
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./framecheck.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	if err := config.Save(*path, config.Default()); err != nil {
		fail(err)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func cmdServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "./framecheck.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	defer logging.Sync()

	srv, _ := newServer(cfg)
	httpSrv := srv.HTTPServer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logging.Info("server_listening", map[string]any{
			"addr":      httpSrv.Addr,
			"base_path": cfg.Frame.BasePath,
			"post":      cfg.Post.ID,
		})
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			fail(err)
		}
		return
	case <-ctx.Done():
	}
	logging.Info("server_shutdown", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logging.Error("server_forced_shutdown", map[string]any{"error": err})
		return
	}
	logging.Info("server_stopped", nil)
}

func cmdCheck() {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfgPath := fs.String("config", "./framecheck.yaml", "config path")
	fid := fs.String("fid", "", "viewer fid")
	post := fs.String("post", "", "cast hash (defaults to post.id)")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	defer logging.Sync()
	if *post == "" {
		*post = cfg.Post.ID
	}

	looker := newLooker(cfg)
	err := cmdlog.Run("check", func() error {
		res, err := looker.Lookup(context.Background(), *post, *fid)
		if err != nil {
			return err
		}
		verb := "has not recasted"
		if res.ViewerHasRecasted {
			verb = "has recasted"
		}
		fmt.Printf("cast %s posted=%s\n", *post, res.PostedAt)
		fmt.Printf("recasts=%d likes=%d\n", res.RecastCount, res.LikeCount)
		fmt.Printf("fid %s %s this cast\n", *fid, verb)
		return nil
	})
	if err != nil {
		fail(err)
	}
}

func cmdRender() {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	cfgPath := fs.String("config", "./framecheck.yaml", "config path")
	name := fs.String("screen", string(frame.Home), "home|check-interaction|recasted|liked")
	fid := fs.String("fid", "", "viewer fid for check-interaction")
	out := fs.String("out", "panel.png", "output PNG path")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	defer logging.Sync()

	screen, ok := frame.ParseScreen(*name)
	if !ok {
		fail(fmt.Errorf("unknown screen %q", *name))
	}
	srv, renderer := newServer(cfg)
	err := cmdlog.Run("render", func() error {
		panel := srv.Dispatch(context.Background(), screen, *fid)
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		if err := renderer.WritePNG(f, panel.Image); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("%s (%s) -> %s\n", panel.Screen, panel.Outcome, *out)
		for _, b := range panel.Buttons {
			fmt.Printf("  [%s] -> %s\n", b.Label, b.Target)
		}
		return nil
	})
	if err != nil {
		fail(err)
	}
}
