package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/fakefs/adapters"
	"github.com/brettbedarf/fakefs/config"
	"github.com/brettbedarf/fakefs/internal/util"
	"github.com/brettbedarf/fakefs/requests"
	"github.com/brettbedarf/fakefs/server"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		verbose    int
		nodesDef   string
		printTree  bool
		umount     bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file (.yaml, .yml or .json)")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.StringVar(&nodesDef, "nodes", "", "Path to tree definition file (.yaml, .yml or .json)")
	flag.StringVar(&nodesDef, "n", "", "--nodes (shorthand)")
	flag.BoolVar(&printTree, "print", false, "Print the loaded tree to stdout")
	flag.BoolVar(&printTree, "p", false, "--print (shorthand)")
	flag.BoolVar(&umount, "umount", false,
		"Unmount the fs first if needed before mounting again. Useful for debuggers that don't exit properly.")
	flag.BoolVar(&umount, "u", false, "--umount (shorthand)")
	flag.IntVar(&verbose, "verbose", config.InfoVerbose, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", config.InfoVerbose, "--verbose (shorthand)")
	flag.Parse()

	verboseSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "verbose" || f.Name == "v" {
			verboseSet = true
		}
	})

	// Load config; an explicit -v wins over the file's log level
	override := &config.ConfigOverride{}
	if configPath != "" {
		var err error
		if override, err = config.LoadConfigOverrideFile(configPath); err != nil {
			util.InitializeLogger(util.ErrorLevel)
			logger := util.GetLogger("main")
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
	}
	if !verboseSet {
		verbose = util.ValueOrDefault(override.LogLvl, verbose)
	}
	override.LogLvl = util.Pointer(verbose)
	cfg := config.NewConfig(override)

	// Initialize logger
	util.InitializeLogger(cfg.LogLvl)
	logger := util.GetLogger("main")

	mnt := flag.Arg(0)
	logger.Info().Int("verbose", verbose).Str("nodes", nodesDef).Str("mnt", mnt).Msg("FakeFS initializing")
	if mnt == "" && !printTree {
		logger.Fatal().Msg("Mount point not specified; pass it as the argument or use --print")
	}

	fs := server.New(cfg)

	// Load tree definition
	if nodesDef != "" {
		registry := adapters.NewRegistry()
		adapters.RegisterBuiltins(registry)

		req, err := requests.NewDecoder(registry).LoadTreeFile(nodesDef)
		if err != nil {
			logger.Fatal().Err(err).Str("nodes", nodesDef).Msg("Failed to parse tree definition")
		}
		logger.Debug().Str("nodes", nodesDef).Int("children", len(req.Children)).Msg("Tree definition parsed")

		if err := fs.Load(context.Background(), req); err != nil {
			logger.Fatal().Err(err).Str("nodes", nodesDef).Msg("Failed to load tree")
		}
	} else {
		logger.Warn().Msg("No tree definition provided; serving an empty root")
	}

	if printTree {
		if err := fs.PrintTree(os.Stdout); err != nil {
			logger.Fatal().Err(err).Msg("Failed to print tree")
		}
		if mnt == "" {
			return
		}
	}

	// Try unmount if requested
	if umount { // send cli command
		cmd := exec.Command("fusermount", "-u", mnt)
		// we ignore error here if not already mounted
		cmd.Run() // nolint:errcheck
	}

	// Serve
	if err := fs.Serve(mnt); err != nil {
		logger.Fatal().Err(err).Msg("Failed to mount filesystem")
	}

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	logger.Info().Str("mountpoint", mnt).Msg("Filesystem mounted successfully")

	// Wait for termination signal or an external unmount
	unmounted := make(chan struct{})
	go func() {
		_ = fs.Wait()
		close(unmounted)
	}()

	select {
	case sig := <-signalChan:
		logger.Info().Str("signal", sig.String()).Msg("Received signal, unmounting filesystem")
		if err := fs.Unmount(); err != nil {
			logger.Error().Err(err).Msg("Failed to unmount filesystem")
		} else {
			logger.Info().Msg("Filesystem unmounted successfully")
		}
	case <-unmounted:
		logger.Info().Msg("Filesystem was unmounted externally")
	}
}
