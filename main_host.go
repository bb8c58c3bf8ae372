//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"sparkcalc/app"
	"sparkcalc/hal"
	"sparkcalc/internal/hostcfg"
)

func main() {
	env, err := hostcfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var cfg hal.HeadlessConfig
	var keys string
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run until exit).")
	flag.StringVar(&keys, "keys", "", `Key script typed in headless mode, e.g. "12+3<enter><esc>".`)
	flag.StringVar(&cfg.Screenshot, "screenshot", "", "Write a PNG of the last frame in headless mode.")
	flag.StringVar(&env.FlashPath, "flash", env.FlashPath, "Flash image file (empty disables persistence).")
	hostcfg.Uint32Var(flag.CommandLine, &env.StateOffset, "state-offset", "Flash offset of the calculator state block.")
	flag.IntVar(&env.Scale, "scale", env.Scale, "Window zoom factor.")
	flag.BoolVar(&env.Mute, "mute", env.Mute, "Disable key clicks.")
	flag.Parse()

	cfg.Options = env.HostOptions()
	appCfg := app.Config{StateOffset: env.StateOffset}
	newApp := func(h hal.HAL) hal.App {
		return app.NewWithConfig(h, appCfg)
	}

	if cfg.Enabled {
		if keys != "" {
			script, err := hal.ParseKeyScript(keys)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			cfg.Script = script
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, newApp, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(newApp, cfg.Options); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
