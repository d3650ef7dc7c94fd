//go:build windows

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"happycat-dpi/internal/core"
	"happycat-dpi/internal/injector"
	"happycat-dpi/internal/metrics"
	"happycat-dpi/internal/service"
	"happycat-dpi/internal/windivert"
	"happycat-dpi/internal/winsvc"
)

// Build info — injected via ldflags at compile time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// stopCh is used to signal shutdown from SCM or OS signals.
var stopCh = make(chan struct{}, 1)

func main() {
	// Handle subcommands first (install, uninstall, start, stop).
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "install":
			handleInstall()
			return
		case "uninstall":
			handleUninstall()
			return
		case "start":
			handleStart()
			return
		case "stop":
			handleStop()
			return
		}
	}

	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	serviceMode := flag.Bool("service", false, "Run as Windows Service (used by SCM)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("happycat-dpi %s (commit=%s, built=%s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if !acquireSingleInstance() {
		fmt.Fprintln(os.Stderr, "Error: another instance is already running")
		os.Exit(1)
	}

	resolvedConfig := resolveRelativeToExe(*configPath)

	if *serviceMode || winsvc.IsWindowsService() {
		runFunc := func() error {
			return runHost(resolvedConfig, stopCh)
		}
		stopFunc := func() {
			close(stopCh)
		}
		if err := winsvc.RunService(runFunc, stopFunc); err != nil {
			log.Fatalf("[Core] Service failed: %v", err)
		}
		return
	}

	// Console mode (development / direct launch).
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		close(stopCh)
	}()

	if err := runHost(resolvedConfig, stopCh); err != nil {
		log.Fatalf("[Core] Fatal: %v", err)
	}
}

// runHost assembles the engine and its surroundings, then serves the
// control plane until stopCh closes.
func runHost(configPath string, stopCh <-chan struct{}) error {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	core.Log.Infof("Core", "Happycat DPI engine %s starting...", version)

	bus := core.NewEventBus()

	cfgManager := core.NewConfigManager(configPath, bus)
	if err := cfgManager.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	core.Log.Apply(cfgManager.Get().Logging)

	collector := metrics.NewCollector()
	engine := injector.New(injector.Deps{
		Loader:  windivert.Load,
		Bus:     bus,
		Metrics: collector,
	})

	svc := service.New(service.Deps{
		Config:    cfgManager,
		Bus:       bus,
		Engine:    engine,
		Collector: collector,
	})

	go func() {
		<-stopCh
		core.Log.Infof("Core", "Shutdown requested")
		svc.Shutdown()
	}()

	return svc.Run()
}

// resolveRelativeToExe anchors relative paths at the executable's directory,
// so the service finds its config no matter the SCM working directory.
func resolveRelativeToExe(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	exePath, err := os.Executable()
	if err != nil {
		return path
	}
	return filepath.Join(filepath.Dir(exePath), path)
}

// handleInstall registers the service with the Windows SCM.
func handleInstall() {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file (optional)")
	fs.Parse(os.Args[2:])

	exePath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine executable path: %v\n", err)
		os.Exit(1)
	}

	if err := winsvc.InstallService(exePath, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Service installed successfully.")
}

// handleUninstall removes the service from the Windows SCM.
func handleUninstall() {
	if err := winsvc.UninstallService(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Service uninstalled successfully.")
}

// handleStart starts the service via SCM.
func handleStart() {
	if err := winsvc.StartService(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Service started successfully.")
}

// handleStop stops the service via SCM.
func handleStop() {
	if err := winsvc.StopService(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Service stopped successfully.")
}
