// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rgbbacklight drives the RGB backlight controller of the Grove LCD
// RGB Backlight module. Two hardware revisions exist with incompatible
// register maps:
//
//   - StandardRGBController, a PCA9633 four channel LED PWM controller at
//     0x62. PWM0..PWM2 drive blue, green and red.
//   - LegacyV5Controller, found on v5 boards at 0x30.
//
// The revision is chosen from the configured address and fixed for the life
// of the Dev. Every write is a two byte [register, value] frame.
//
// # Datasheet
//
// https://www.nxp.com/docs/en/data-sheet/PCA9633.pdf
package rgbbacklight

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
)

const (
	// DefaultAddress is the address of the standard controller.
	DefaultAddress uint16 = 0x62
	// LegacyV5Address is the address of the v5 controller.
	LegacyV5Address uint16 = 0x30
)

type Variant byte

const (
	StandardRGBController Variant = iota
	LegacyV5Controller
)

func (v Variant) String() string {
	switch v {
	case StandardRGBController:
		return "StandardRGBController"
	case LegacyV5Controller:
		return "LegacyV5Controller"
	}
	return fmt.Sprintf("Variant(%d)", byte(v))
}

// VariantFor returns the controller revision found at address.
func VariantFor(address uint16) Variant {
	if address == LegacyV5Address {
		return LegacyV5Controller
	}
	return StandardRGBController
}

// regWrite is one register write, optionally followed by a delay.
type regWrite struct {
	reg   byte
	value byte
	delay time.Duration
}

type registerMap struct {
	red   byte
	green byte
	blue  byte
	// Mode-1, output enable and mode-2 writes, in order.
	bringup  []regWrite
	blinkOn  []regWrite
	blinkOff []regWrite
}

// Register offsets of the PCA9633.
const (
	_MODE1   byte = 0x00
	_MODE2   byte = 0x01
	_PWM0    byte = 0x02
	_PWM1    byte = 0x03
	_PWM2    byte = 0x04
	_GRPPWM  byte = 0x06
	_GRPFREQ byte = 0x07
	_LEDOUT  byte = 0x08
)

var registerMaps = [...]registerMap{
	StandardRGBController: {
		red:   _PWM2,
		green: _PWM1,
		blue:  _PWM0,
		bringup: []regWrite{
			{reg: _MODE1, value: 0x00},
			// All outputs under individual and group PWM control.
			{reg: _LEDOUT, value: 0xff},
			// Group control is blinking.
			{reg: _MODE2, value: 0x20},
		},
		// Blink period (GRPFREQ+1)/24 s, duty GRPPWM/256.
		blinkOn:  []regWrite{{reg: _GRPFREQ, value: 0x17}, {reg: _GRPPWM, value: 0x7f}},
		blinkOff: []regWrite{{reg: _GRPFREQ, value: 0x00}, {reg: _GRPPWM, value: 0xff}},
	},
	LegacyV5Controller: {
		red:   0x06,
		green: 0x07,
		blue:  0x08,
		bringup: []regWrite{
			{reg: 0x00, value: 0x07, delay: 200 * time.Microsecond},
			// Each LED on its own PWM.
			{reg: 0x04, value: 0x15},
		},
		// Attach all LEDs to PWM1, period (reg1+2)*128 ms, duty reg2/256.
		blinkOn:  []regWrite{{reg: 0x04, value: 0x2a}, {reg: 0x01, value: 0x06}, {reg: 0x02, value: 0x7f}},
		blinkOff: []regWrite{{reg: 0x04, value: 0x15}},
	},
}

var (
	// sleep is replaced in tests to observe the bring-up delay.
	sleep = time.Sleep

	logger = log.WithField("pkg", "rgbbacklight")
)

// Dev represents the backlight controller of one display.
type Dev struct {
	d       *i2c.Dev
	variant Variant
	regs    *registerMap
}

// New returns a backlight bound to address on bus. The revision is selected
// from the address. No bus traffic happens until Init is called.
func New(bus i2c.Bus, address uint16) *Dev {
	v := VariantFor(address)
	return &Dev{
		d:       &i2c.Dev{Bus: bus, Addr: address},
		variant: v,
		regs:    &registerMaps[v],
	}
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("rgbbacklight: %w", err)
}

func (dev *Dev) write(reg, value byte) error {
	logger.Tracef("register 0x%02x = 0x%02x", reg, value)
	return wrap(dev.d.Tx([]byte{reg, value}, nil))
}

func (dev *Dev) writeAll(writes []regWrite) error {
	for _, w := range writes {
		if err := dev.write(w.reg, w.value); err != nil {
			return err
		}
		if w.delay > 0 {
			sleep(w.delay)
		}
	}
	return nil
}

// Init brings the controller out of sleep with PWM outputs enabled.
func (dev *Dev) Init() error {
	logger.Debugf("bringing up %s at %#x", dev.variant, dev.d.Addr)
	return dev.writeAll(dev.regs.bringup)
}

// Variant returns the controller revision in use.
func (dev *Dev) Variant() Variant {
	return dev.variant
}

// RGB sets the three channel intensities. Writes are always red, green,
// blue.
func (dev *Dev) RGB(red, green, blue byte) error {
	if err := dev.write(dev.regs.red, red); err != nil {
		return err
	}
	if err := dev.write(dev.regs.green, green); err != nil {
		return err
	}
	return dev.write(dev.regs.blue, blue)
}

// For units that have an RGB Backlight, set the backlight color/intensity.
// The range of the values is 0-255.
func (dev *Dev) RGBBacklight(red, green, blue display.Intensity) error {
	return dev.RGB(level(red), level(green), level(blue))
}

// Backlight sets all three channels to the same intensity.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	l := level(intensity)
	return dev.RGB(l, l, l)
}

// Off turns every channel off.
func (dev *Dev) Off() error {
	return dev.RGB(0, 0, 0)
}

// Blink turns the hardware blink of the whole backlight on or off, roughly
// once per second at half duty.
func (dev *Dev) Blink(on bool) error {
	if on {
		return dev.writeAll(dev.regs.blinkOn)
	}
	return dev.writeAll(dev.regs.blinkOff)
}

// Halt turns the backlight off. Implements conn.Resource.
func (dev *Dev) Halt() error {
	return dev.Off()
}

func (dev *Dev) String() string {
	return fmt.Sprintf("rgbbacklight{%s, %s}", dev.variant, dev.d)
}

func level(i display.Intensity) byte {
	if i < 0 {
		return 0
	}
	if i > 0xff {
		return 0xff
	}
	return byte(i)
}

var _ conn.Resource = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ display.DisplayRGBBacklight = &Dev{}
