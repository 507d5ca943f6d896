// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// grovelcd shows the time, and optionally text and colors received over
// MQTT, on a Grove LCD RGB Backlight module.
//
// Use -sim to run against a terminal emulator instead of the hardware and
// -shell to drive the display by hand.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/grovelcd/groverrgb"
	"github.com/GermanBionicSystems/grovelcd/lcdsim"
	"github.com/GermanBionicSystems/grovelcd/mqttbridge"
	"github.com/GermanBionicSystems/grovelcd/rgbbacklight"
)

// parseSize parses COLSxROWS.
func parseSize(s string) (cols, rows int, err error) {
	c, r, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, want COLSxROWS", s)
	}
	if cols, err = strconv.Atoi(c); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if rows, err = strconv.Atoi(r); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return cols, rows, nil
}

// parseAddr checks a 7 bit I²C address flag.
func parseAddr(name string, v uint) (uint16, error) {
	if v > 0x7f {
		return 0, fmt.Errorf("-%s: invalid I²C address %#x", name, v)
	}
	return uint16(v), nil
}

// refresher redraws the emulator after each change.
type refresher struct {
	sim *lcdsim.Bus
	png string
}

func (r *refresher) refresh() {
	if r == nil {
		return
	}
	if err := r.sim.Refresh(); err != nil {
		log.Warnf("refresh: %v", err)
	}
	if r.png != "" {
		if err := r.sim.SavePNG(r.png); err != nil {
			log.Warnf("png: %v", err)
		}
	}
}

// newWriter returns the update callback: the time on the first row unless
// the feed provides one, then the feed.
func newWriter(clock string, feed *mqttbridge.Feed, r *refresher) groverrgb.Writer {
	return func(dev *groverrgb.Dev) {
		fed := false
		if feed != nil {
			_, fed = feed.Line(0)
		}
		if !fed && clock != "" {
			if err := dev.StrftimeAt(0, 0, clock, time.Now()); err != nil {
				log.Warnf("clock: %v", err)
			}
		}
		if feed != nil {
			feed.Render(dev)
		}
		r.refresh()
	}
}

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use")
	lcdAddr := flag.Uint("lcd", 0x3e, "text controller I²C address")
	blAddr := flag.Uint("backlight", uint(rgbbacklight.DefaultAddress), "backlight controller I²C address, 0x30 on v5 boards")
	size := flag.String("size", "16x2", "display size as COLSxROWS")
	interval := flag.Duration("interval", groverrgb.DefaultUpdateInterval, "update interval")
	clearEach := flag.Bool("clear", true, "clear the display before each update")
	homeEach := flag.Bool("home", false, "move the cursor home before each update")
	clock := flag.String("clock", "%H:%M:%S", "strftime pattern shown on the first row, empty to disable")
	sim := flag.Bool("sim", false, "emulate the module in the terminal")
	png := flag.String("png", "", "with -sim, also save the display to this PNG file")
	mqttURL := flag.String("mqtt", "", "MQTT broker URL, e.g. mqtt://host:1883/grovelcd")
	shell := flag.Bool("shell", false, "interactive shell instead of the update loop")
	verbose := flag.Bool("v", false, "verbose mode")
	trace := flag.Bool("vv", false, "log every bus frame")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	switch {
	case *trace:
		log.SetLevel(log.TraceLevel)
	case *verbose:
		log.SetLevel(log.DebugLevel)
	}
	if *png != "" && !*sim {
		return errors.New("-png requires -sim")
	}

	opts := groverrgb.DefaultOpts
	var err error
	if opts.LCDAddr, err = parseAddr("lcd", *lcdAddr); err != nil {
		return err
	}
	if opts.BacklightAddr, err = parseAddr("backlight", *blAddr); err != nil {
		return err
	}
	opts.ClearOnUpdate = *clearEach
	opts.HomeOnUpdate = *homeEach
	if opts.Cols, opts.Rows, err = parseSize(*size); err != nil {
		return err
	}

	var bus i2c.BusCloser
	var r *refresher
	if *sim {
		s, err := lcdsim.New(&lcdsim.Opts{
			LCDAddr:       opts.LCDAddr,
			BacklightAddr: opts.BacklightAddr,
			Cols:          opts.Cols,
			Rows:          opts.Rows,
		})
		if err != nil {
			return err
		}
		bus = s
		r = &refresher{sim: s, png: *png}
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		if bus, err = i2creg.Open(*busName); err != nil {
			return err
		}
	}
	defer bus.Close()

	var feed *mqttbridge.Feed
	if *mqttURL != "" && !*shell {
		if feed, err = mqttbridge.New(*mqttURL); err != nil {
			return err
		}
		if err := feed.Connect(); err != nil {
			return err
		}
		defer feed.Close()
	}
	opts.Writer = newWriter(*clock, feed, r)

	dev, err := groverrgb.New(bus, &opts)
	if err != nil {
		return err
	}
	if err := dev.Setup(); err != nil {
		return err
	}
	defer dev.Halt()
	log.Infof("using %s on %s", dev, bus)

	if *shell {
		newConsole(dev, r.refresh).shell().Run()
		return nil
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := dev.Run(ctx, *interval); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "grovelcd: %s.\n", err)
		os.Exit(1)
	}
}
