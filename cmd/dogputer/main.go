package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("dogputer v%s\n", version)
	fmt.Println("Button-box media appliance daemon for pets")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  dogputer [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Polls physical input devices (keyboard, joystick, arcade controller),")
	fmt.Println("  translates presses into commands via a hot-reloadable mapping table,")
	fmt.Println("  and plays the mapped media (sound, image, video) with spoken feedback.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file (defaults apply when omitted)")
	fmt.Println()
	fmt.Println("  -device string")
	fmt.Println("        Single keyboard input device override (e.g. /dev/input/event3)")
	fmt.Println()
	fmt.Println("  -profile string")
	fmt.Println("        Active mapping profile name")
	fmt.Println()
	fmt.Println("  -tick-hz int")
	fmt.Printf("        Poll loop frequency in Hz (default %d)\n", defaultTickHz)
	fmt.Println()
	fmt.Println("  -web-port int")
	fmt.Printf("        Admin HTTP/WS port, 0 disables (default %d)\n", defaultWebPort)
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Printf("        Unix domain socket path for IPC (default %q)\n", defaultSocketPath)
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to input devices (run as root or join the 'input' group)")
	fmt.Println("  - Mapping profiles and media can be swapped at runtime through the admin API")
	fmt.Println()
}

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file")
		device      = flag.String("device", "", "single keyboard input device override")
		profile     = flag.String("profile", "", "active mapping profile name")
		tickHz      = flag.Int("tick-hz", 0, "poll loop frequency in Hz")
		webPort     = flag.Int("web-port", -1, "admin HTTP/WS port, 0 disables")
		ipcSocket   = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		logLevelStr = flag.String("log-level", "", "log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "print version and exit")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	overrides := FlagOverrides{}
	if *device != "" {
		overrides.Device = device
	}
	if *profile != "" {
		overrides.Profile = profile
	}
	if *tickHz > 0 {
		overrides.TickHz = tickHz
	}
	if *webPort >= 0 {
		overrides.WebPort = webPort
	}
	if *ipcSocket != "" {
		overrides.SocketPath = ipcSocket
	}
	if *logLevelStr != "" {
		overrides.LogLevel = logLevelStr
	}
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel)

	// Collaborators
	player := NewExecPlayer(cfg.Player, logger)
	speaker := NewExecSpeaker(cfg.Speaker.Cmd, logger)
	feed := NewStateFeed(logger)

	// Core
	state := NewAppState(player, speaker, logger, feed.Publish)
	mapper := NewInputMapper()
	gateway := NewReloadGateway(mapper, state, cfg.Input.ProfileDir, cfg.Media.ChannelsFile, cfg.MediaRoots(), logger)

	// Initial configuration. Startup is strict: a profile or channel list
	// that does not parse is a configuration error, not a runtime one.
	if err := gateway.ReloadMappingProfile(cfg.Input.Profile); err != nil {
		logger.Error("initial mapping profile failed", "profile", cfg.Input.Profile, "error", err)
		os.Exit(1)
	}
	if err := gateway.ReloadActionRegistry(); err != nil {
		logger.Error("initial action registry failed", "error", err)
		os.Exit(1)
	}

	// Devices
	composite := NewCompositeSource()
	for _, dev := range cfg.Devices {
		composite.Add(NewDeviceSource(dev.Path, DeviceKind(dev.Kind), dev.Joy, logger))
	}
	defer composite.Close()

	// Shutdown: signals raise the same cooperative intent as ExitCommand.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigc:
			logger.Info("signal received, shutting down", "signal", sig)
			state.RequestShutdown()
		case <-ctx.Done():
		}
	}()

	external := make(chan Command, defaultIPCQueue)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		feed.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return runIPCServer(gctx, cfg.IPC.SocketPath, external, logger)
	})
	if cfg.Web.Port > 0 {
		admin := NewAdminServer(gateway, mapper, state, feed, logger)
		g.Go(func() error {
			return runAdminServer(gctx, cfg.Web.Port, admin.Routes(), logger)
		})
	}

	logger.Info("listening",
		"devices", len(cfg.Devices),
		"profile", cfg.Input.Profile,
		"tick_hz", cfg.Loop.TickHz,
		"web_port", cfg.Web.Port,
		"ipc", cfg.IPC.SocketPath)

	runLoop(gctx, state, composite, mapper, external, cfg.Loop.TickHz, logger)

	// Termination sequence: stop media, close devices, stop servers.
	player.Stop()
	cancel()
	if err := g.Wait(); err != nil {
		logger.Error("server error during shutdown", "error", err)
		os.Exit(1)
	}
}
