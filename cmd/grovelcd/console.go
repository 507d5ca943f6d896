// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/grovelcd/groverrgb"
)

// command is one console command.
type command struct {
	help string
	run  func(args []string) error
}

// console runs commands against a display. after is called once a command
// succeeded, to refresh an emulator.
type console struct {
	dev   *groverrgb.Dev
	after func()
	cmds  map[string]command
}

func newConsole(dev *groverrgb.Dev, after func()) *console {
	c := &console{dev: dev, after: after}
	c.cmds = map[string]command{
		"print":     {"TEXT...: print at the cursor", c.print},
		"printat":   {"COL ROW TEXT...: print at a position", c.printAt},
		"clear":     {"clear the display", noArgs(dev.Clear)},
		"home":      {"move the cursor home", noArgs(dev.Home)},
		"display":   {"on|off: turn the display on or off", onOff(dev.Display)},
		"cursor":    {"off|underline|block|blink: set the cursor", c.cursor},
		"blink":     {"on|off: blink the backlight", onOff(dev.BlinkBacklight)},
		"backlight": {"off | LEVEL | R G B: set the backlight", c.backlight},
		"glyph":     {"SLOT HEX: load 8 glyph rows, e.g. glyph 0 000a1f1f0e040000", c.glyph},
		"scroll":    {"left|right: shift the display by one position", c.scroll},
	}
	return c
}

// exec runs one command line.
func (c *console) exec(name string, args []string) error {
	cmd, ok := c.cmds[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if err := cmd.run(args); err != nil {
		return err
	}
	if c.after != nil {
		c.after()
	}
	return nil
}

// shell returns an interactive shell exposing every command.
func (c *console) shell() *ishell.Shell {
	sh := ishell.New()
	sh.SetPrompt("grovelcd> ")
	names := make([]string, 0, len(c.cmds))
	for name := range c.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		name := name
		sh.AddCmd(&ishell.Cmd{
			Name: name,
			Help: c.cmds[name].help,
			Func: func(ctx *ishell.Context) {
				if err := c.exec(name, ctx.Args); err != nil {
					ctx.Err(err)
				}
			},
		})
	}
	return sh
}

func noArgs(fn func() error) func([]string) error {
	return func(args []string) error {
		if len(args) != 0 {
			return errors.New("no argument expected")
		}
		return fn()
	}
}

func onOff(fn func(bool) error) func([]string) error {
	return func(args []string) error {
		if len(args) != 1 {
			return errors.New("on or off expected")
		}
		switch args[0] {
		case "on":
			return fn(true)
		case "off":
			return fn(false)
		}
		return fmt.Errorf("on or off expected, got %q", args[0])
	}
}

func (c *console) print(args []string) error {
	return c.dev.Print(strings.Join(args, " "))
}

func (c *console) printAt(args []string) error {
	if len(args) < 3 {
		return errors.New("COL ROW TEXT expected")
	}
	col, err := parseByte(args[0])
	if err != nil {
		return err
	}
	row, err := parseByte(args[1])
	if err != nil {
		return err
	}
	return c.dev.PrintAt(col, row, strings.Join(args[2:], " "))
}

var cursorModes = map[string]display.CursorMode{
	"off":       display.CursorOff,
	"underline": display.CursorUnderline,
	"block":     display.CursorBlock,
	"blink":     display.CursorBlink,
}

func (c *console) cursor(args []string) error {
	if len(args) == 0 {
		return errors.New("cursor mode expected")
	}
	modes := make([]display.CursorMode, 0, len(args))
	for _, a := range args {
		m, ok := cursorModes[a]
		if !ok {
			return fmt.Errorf("unknown cursor mode %q", a)
		}
		modes = append(modes, m)
	}
	return c.dev.Cursor(modes...)
}

func (c *console) backlight(args []string) error {
	switch len(args) {
	case 1:
		if args[0] == "off" {
			return c.dev.NoBacklight()
		}
		l, err := parseByte(args[0])
		if err != nil {
			return err
		}
		return c.dev.Backlight(display.Intensity(l))
	case 3:
		var rgb [3]display.Intensity
		for i, a := range args {
			v, err := parseByte(a)
			if err != nil {
				return err
			}
			rgb[i] = display.Intensity(v)
		}
		return c.dev.RGBBacklight(rgb[0], rgb[1], rgb[2])
	}
	return errors.New("off, LEVEL or R G B expected")
}

func (c *console) glyph(args []string) error {
	if len(args) != 2 {
		return errors.New("SLOT HEX expected")
	}
	slot, err := parseByte(args[0])
	if err != nil {
		return err
	}
	raw, err := hex.DecodeString(args[1])
	if err != nil {
		return err
	}
	if len(raw) != 8 {
		return fmt.Errorf("8 glyph rows expected, got %d", len(raw))
	}
	var bitmap [8]byte
	copy(bitmap[:], raw)
	return c.dev.LoadGlyph(slot, bitmap)
}

func (c *console) scroll(args []string) error {
	if len(args) != 1 {
		return errors.New("left or right expected")
	}
	switch args[0] {
	case "left":
		return c.dev.ScrollDisplayLeft()
	case "right":
		return c.dev.ScrollDisplayRight()
	}
	return fmt.Errorf("left or right expected, got %q", args[0])
}

// parseByte accepts decimal, 0x hex, 0o octal and 0b binary.
func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}
