package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/1broseidon/windeck/internal/config"
	"github.com/1broseidon/windeck/internal/daemon"
	"github.com/1broseidon/windeck/internal/desk"
	"github.com/1broseidon/windeck/internal/eventloop"
	"github.com/1broseidon/windeck/internal/hotkeys"
	"github.com/1broseidon/windeck/internal/ipc"
	"github.com/1broseidon/windeck/internal/overlay"
	"github.com/1broseidon/windeck/internal/platform"
	"github.com/1broseidon/windeck/internal/runtimepath"
	"github.com/1broseidon/windeck/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "spotlight":
		os.Exit(runSpotlight(os.Args[2:]))
	case "snap":
		os.Exit(runSnap(os.Args[2:]))
	case "restore":
		os.Exit(runRestore(os.Args[2:]))
	case "persist":
		os.Exit(runPersist(os.Args[2:]))
	case "slide":
		os.Exit(runSlide(os.Args[2:]))
	case "decorate":
		os.Exit(runDecorate(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: windeck <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the windeck daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  spotlight           Spotlight windows over a dimmed backdrop")
	fmt.Fprintln(w, "  snap                Toggle edge snapping for a window")
	fmt.Fprintln(w, "  restore             Restore a window's saved state")
	fmt.Fprintln(w, "  persist             Save a window's current state")
	fmt.Fprintln(w, "  slide               Animate a window to a position")
	fmt.Fprintln(w, "  decorate            Show or hide window decorations")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config init         Write a default configuration file")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Window IDs are X11 IDs, e.g. 0x3a00007 (see xprop or xdotool).")
	fmt.Fprintln(w, "Run 'windeck <command> --help' for command-specific options.")
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// openStorage builds the configured state backend. The returned closer is
// never nil.
func openStorage(cfg config.StorageConfig) (store.Backend, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.StorageMemory:
		return store.NewMemoryBackend(), noop, nil
	case config.StorageSQLite:
		path := cfg.Path
		if path == "" {
			var err error
			if path, err = runtimepath.DatabasePath(); err != nil {
				return nil, noop, err
			}
		}
		db, err := store.OpenSQLite(path)
		if err != nil {
			return nil, noop, err
		}
		return db, func() { db.Close() }, nil
	default:
		dir := cfg.Path
		if dir == "" {
			var err error
			if dir, err = runtimepath.StateDir(); err != nil {
				return nil, noop, err
			}
		}
		return store.NewFileBackend(dir), noop, nil
	}
}

func registerHotkeys(h *hotkeys.Handler, cfg *config.Config) {
	if err := h.RegisterSpotlight(cfg.Hotkeys.Spotlight); err != nil {
		log.Printf("Warning: Failed to register spotlight hotkey: %v", err)
	} else if cfg.Hotkeys.Spotlight != "" {
		log.Printf("Spotlight hotkey registered: %s", cfg.Hotkeys.Spotlight)
	}
	if err := h.RegisterSnap(cfg.Hotkeys.Snap); err != nil {
		log.Printf("Warning: Failed to register snap hotkey: %v", err)
	} else if cfg.Hotkeys.Snap != "" {
		log.Printf("Snap hotkey registered: %s", cfg.Hotkeys.Snap)
	}
}

// shutdownTimeout bounds how long exit waits for windows to be released.
const shutdownTimeout = 2 * time.Second

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/windeck/config.yaml)")
	watch := fs.Bool("watch", true, "Reload configuration when the config file changes")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: windeck daemon [--config PATH] [--watch=false]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the window coordination daemon in the foreground.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	loaded, err := loadResult(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := loaded.Config
	log.Printf("Configuration loaded (storage: %s, snap threshold: %dpx)", cfg.Storage.Backend, cfg.Snap.Threshold)

	var level slog.LevelVar
	level.Set(parseLevel(cfg.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()
	conn := backend.Connection()
	if !backend.Compositing() {
		log.Println("No compositing manager detected; spotlight and reveal run without translucency")
	}

	storage, closeStorage, err := openStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Backend, err)
	}
	defer closeStorage()

	displays, err := backend.Displays()
	if err != nil {
		log.Fatalf("Failed to read monitors: %v", err)
	}
	bounds, err := overlay.Cover(displays)
	if err != nil {
		log.Fatalf("Failed to size backdrop: %v", err)
	}
	backdrop, err := overlay.New(conn, bounds, backend.Compositing(), logger.With("component", "overlay"))
	if err != nil {
		log.Fatalf("Failed to create backdrop: %v", err)
	}
	defer backdrop.Close()

	loop := eventloop.New()
	manager := desk.New(desk.Options{
		Resolver:  backend,
		Screens:   backend,
		Scheduler: loop,
		Backdrop:  backdrop,
		Storage:   storage,
		Logger:    logger,
		Config:    cfg,
	})

	hotkeyHandler := hotkeys.NewHandler(backend, manager)
	registerHotkeys(hotkeyHandler, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	onScreenChange := func() {
		backend.Refresh()
		manager.RefreshScreens()
		backdrop.SetCompositing(backend.Compositing())
		displays, err := backend.Displays()
		if err != nil {
			log.Printf("Screen change: failed to read monitors: %v", err)
			return
		}
		if bounds, err := overlay.Cover(displays); err == nil {
			if err := backdrop.Resize(bounds); err != nil {
				log.Printf("Screen change: failed to resize backdrop: %v", err)
			}
		}
	}

	// applyConfig runs on the loop.
	applyConfig := func(newCfg *config.Config) {
		if newCfg.Storage != cfg.Storage {
			log.Println("Storage settings changed; restart the daemon to apply them")
		}
		level.Set(parseLevel(newCfg.LogLevel))
		manager.UpdateConfig(newCfg)
		hotkeyHandler.UnregisterAll()
		registerHotkeys(hotkeyHandler, newCfg)
		onScreenChange()
		cfg = newCfg
	}
	var watcher *config.Watcher
	reload := func() error {
		res, err := loadResult(*configPath)
		if err != nil {
			return err
		}
		if watcher != nil {
			watcher.SetFiles(res.Files)
		}
		return loop.Call(ctx, func() { applyConfig(res.Config) })
	}

	if *watch {
		files := append([]string{}, loaded.Files...)
		if *configPath != "" {
			files = append(files, *configPath)
		} else if p, err := config.DefaultConfigPath(); err == nil {
			files = append(files, p)
		}
		watcher, err = config.NewWatcher(files, 0, logger.With("component", "config"), func() {
			log.Println("Config file changed, reloading...")
			if err := reload(); err != nil {
				log.Printf("Config reload failed: %v", err)
			}
		})
		if err != nil {
			log.Printf("Warning: config file watching disabled: %v", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	synchronizer := daemon.NewStateSynchronizer(conn, backend, manager, logger.With("component", "sync"))
	synchronizer.OnScreenChange(onScreenChange)
	if err := synchronizer.Start(); err != nil {
		log.Printf("Warning: root window subscription failed, relying on periodic reconcile: %v", err)
	}

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: cfg.Reconcile.Interval(),
		Logger:   logger.With("component", "reconciler"),
	}, manager, loop.Call, backend.ClientWindows)
	go reconciler.Run(ctx)

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		log.Fatalf("Failed to resolve IPC socket path: %v", err)
	}
	ipcServer, err := ipc.NewServer(ipc.ServerConfig{
		SocketPath: socketPath,
		Desk:       manager,
		Dispatch:   loop.Call,
		Reload:     reload,
	})
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading config...")
				if err := reload(); err != nil {
					log.Printf("Config reload failed: %v", err)
					continue
				}
				log.Println("Config reloaded successfully")
			default:
				log.Println("Shutting down windeck daemon...")
				settle, stop := context.WithTimeout(context.Background(), shutdownTimeout)
				if err := loop.Call(settle, manager.Shutdown); err != nil {
					log.Printf("Failed to release windows before exit: %v", err)
				}
				stop()
				cancel()
				return
			}
		}
	}()

	// Drop windows that vanished while no daemon was running.
	loop.Post(func() { synchronizer.HandleClientListChanged() })

	log.Println("windeck daemon started successfully")
	if err := loop.Run(ctx, conn); err != nil && err != context.Canceled {
		log.Printf("Event loop stopped: %v", err)
		return 1
	}
	return 0
}
