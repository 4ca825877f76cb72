package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/jessevdk/go-flags"

	"chatwire/internal/config"
	"chatwire/internal/ui/headless"
	"chatwire/internal/ui/plain"
)

var BuildVersion = "dev"

func main() {
	rootCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	opts, err := config.ParseOptions()
	if err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if saved, loadErr := config.LoadSettings(); loadErr == nil {
		opts = config.MergeOptionsWithSettings(opts, saved)
	}
	if opts.Save {
		if err := config.SaveSettings(config.SettingsFromOptions(opts)); err != nil {
			fmt.Fprintln(os.Stderr, "failed to save settings:", err)
		}
	}

	lock, lockErr := acquireInstanceLock()
	if errors.Is(lockErr, errAlreadyRunning) {
		fmt.Fprintln(os.Stderr, lockErr)
		os.Exit(1)
	}
	if lockErr != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize single-instance lock:", lockErr)
		os.Exit(2)
	}

	code := run(rootCtx, opts)
	_ = lock.Release()
	stopSignals()
	os.Exit(code)
}

func run(ctx context.Context, opts config.Options) int {
	if opts.Plain {
		return plain.Run(ctx, BuildVersion, opts)
	}
	return headless.Run(ctx, BuildVersion, opts)
}
