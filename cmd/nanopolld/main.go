package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/pinwhell/NanoTask/internal/app"
	"github.com/pinwhell/NanoTask/pkg/nanotask"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	if err := a.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}

	// Announce readiness, and when the systemd watchdog is armed, pet it
	// from a task in the daemon's own registry.
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	if wd, err := daemon.SdWatchdogEnabled(false); err == nil && wd > 0 {
		a.Poller().RegisterTask("systemd-watchdog", nanotask.New(wd/2, func() error {
			_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			return err
		}))
	}

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	_ = a.Stop(context.Background())
}
