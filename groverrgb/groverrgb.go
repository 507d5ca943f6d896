// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package groverrgb drives the Grove LCD RGB Backlight module, a 16x2
// character LCD made of two I²C devices on the same bus:
//
//   - an AiP31068 text controller at 0x3e, see [aip31068].
//   - an RGB backlight controller, a PCA9633 at 0x62 or, on v5 boards, a
//     different chip at 0x30. See [rgbbacklight].
//
// New only records the configuration. Setup runs the power-on sequence,
// after which every text and backlight operation is available. Update is
// meant to be called periodically, either by the caller or by Run.
//
// A Dev is not safe for concurrent use.
package groverrgb

import (
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"

	"github.com/GermanBionicSystems/grovelcd/aip31068"
	"github.com/GermanBionicSystems/grovelcd/rgbbacklight"
)

// InitState is a step of the power-on sequence.
type InitState int

const (
	StateConstructed InitState = iota
	StatePowerSettle
	StateFunctionSetRetry
	StateDisplayOn
	StateClear
	StateEntryModeSet
	StateBacklightBringup
	StateBacklightOn
	StateGlyphUpload
	StateReady
)

var stateNames = [...]string{
	StateConstructed:      "Constructed",
	StatePowerSettle:      "PowerSettle",
	StateFunctionSetRetry: "FunctionSetRetry",
	StateDisplayOn:        "DisplayOn",
	StateClear:            "Clear",
	StateEntryModeSet:     "EntryModeSet",
	StateBacklightBringup: "BacklightBringup",
	StateBacklightOn:      "BacklightOn",
	StateGlyphUpload:      "GlyphUpload",
	StateReady:            "Ready",
}

func (s InitState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("InitState(%d)", int(s))
}

// The controller ignores commands for 40ms after power up.
const powerSettleDelay = 50 * time.Millisecond

var (
	// ErrNotReady is returned by backlight operations before Setup brought
	// the backlight up.
	ErrNotReady = errors.New("groverrgb: backlight not initialized")

	sleep = time.Sleep

	logger = log.WithField("pkg", "groverrgb")
)

// Dev is a Grove LCD RGB Backlight module. The text operations of
// aip31068.Dev are available directly.
type Dev struct {
	*aip31068.Dev

	bus       i2c.Bus
	opts      Opts
	backlight *rgbbacklight.Dev
	state     InitState
}

// New returns a display on bus. There is no bus traffic until Setup.
//
// Use default options if nil is used.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("groverrgb: %w", err)
	}
	lcd, err := aip31068.New(bus, opts.lcdAddr(), opts.Rows, opts.Cols)
	if err != nil {
		return nil, err
	}
	d := &Dev{
		Dev:  lcd,
		bus:  bus,
		opts: *opts,
	}
	return d, nil
}

// Setup runs the power-on sequence. There are no retries; the first
// failing write aborts Setup and State reports the step that failed.
func (dev *Dev) Setup() error {
	logger.Info("setting up Grove RGB LCD display")
	steps := []struct {
		state InitState
		run   func() error
	}{
		{StatePowerSettle, dev.powerSettle},
		{StateFunctionSetRetry, dev.Reset},
		{StateDisplayOn, func() error { return dev.Display(true) }},
		{StateClear, dev.Clear},
		{StateEntryModeSet, func() error { return dev.SetEntryMode(aip31068.EntryLeft) }},
		{StateBacklightBringup, dev.bringupBacklight},
		{StateBacklightOn, func() error { return dev.Backlight(0xff) }},
		{StateGlyphUpload, dev.LoadUserGlyphs},
	}
	for _, step := range steps {
		dev.state = step.state
		logger.Debugf("init: %s", step.state)
		if err := step.run(); err != nil {
			return fmt.Errorf("groverrgb: %s: %w", step.state, err)
		}
	}
	dev.state = StateReady
	logger.Infof("%s ready", dev)
	return nil
}

// State returns the current or last failed step of Setup.
func (dev *Dev) State() InitState {
	return dev.state
}

func (dev *Dev) powerSettle() error {
	sleep(powerSettleDelay)
	return nil
}

func (dev *Dev) bringupBacklight() error {
	dev.backlight = rgbbacklight.New(dev.bus, dev.opts.backlightAddr())
	return dev.backlight.Init()
}

// LoadUserGlyphs uploads the glyphs from Opts.UserChars in slot order, then
// points the address counter back at the top left of the display so the next
// characters land in display memory.
func (dev *Dev) LoadUserGlyphs() error {
	slots := make([]int, 0, len(dev.opts.UserChars))
	for slot := range dev.opts.UserChars {
		slots = append(slots, int(slot))
	}
	sort.Ints(slots)
	for _, slot := range slots {
		var bitmap [8]byte
		copy(bitmap[:], dev.opts.UserChars[uint8(slot)])
		if err := dev.LoadGlyph(uint8(slot), bitmap); err != nil {
			return err
		}
	}
	if len(slots) == 0 {
		return nil
	}
	return dev.SetCursor(0, 0)
}

// Variant returns the backlight controller revision selected by the
// configured address.
func (dev *Dev) Variant() rgbbacklight.Variant {
	return rgbbacklight.VariantFor(dev.opts.backlightAddr())
}

// Set the backlight intensity. All three channels get the same value.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	if dev.backlight == nil {
		return ErrNotReady
	}
	return dev.backlight.Backlight(intensity)
}

// For units that have an RGB Backlight, set the backlight color/intensity.
// The range of the values is 0-255.
func (dev *Dev) RGBBacklight(red, green, blue display.Intensity) error {
	if dev.backlight == nil {
		return ErrNotReady
	}
	return dev.backlight.RGBBacklight(red, green, blue)
}

// NoBacklight turns the backlight off.
func (dev *Dev) NoBacklight() error {
	if dev.backlight == nil {
		return ErrNotReady
	}
	return dev.backlight.Off()
}

// BlinkBacklight makes the whole backlight blink about once per second.
func (dev *Dev) BlinkBacklight(on bool) error {
	if dev.backlight == nil {
		return ErrNotReady
	}
	return dev.backlight.Blink(on)
}

// Halt clears the display, turns it off and turns the backlight off.
func (dev *Dev) Halt() error {
	err := dev.Dev.Halt()
	if dev.backlight != nil {
		if blErr := dev.backlight.Halt(); err == nil {
			err = blErr
		}
	}
	return err
}

func (dev *Dev) String() string {
	return fmt.Sprintf("groverrgb{%s, %s}", dev.Dev, dev.Variant())
}

var _ conn.Resource = &Dev{}
var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ display.DisplayRGBBacklight = &Dev{}
