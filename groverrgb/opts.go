// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package groverrgb

import (
	"fmt"

	"github.com/GermanBionicSystems/grovelcd/aip31068"
	"github.com/GermanBionicSystems/grovelcd/rgbbacklight"
)

// Writer renders the display content. It is called once per Update with
// the display it belongs to.
type Writer func(dev *Dev)

// Opts is the configuration of a display. It is read once by New.
type Opts struct {
	// I²C address of the text controller. 0 means aip31068.DefaultAddress.
	LCDAddr uint16
	// I²C address of the backlight controller. 0 means 0x62. Use 0x30 for
	// v5 boards.
	BacklightAddr uint16
	// Display dimensions, at most 64x4.
	Cols int
	Rows int
	// Glyphs uploaded to CGRAM at the end of Setup, keyed by slot (0-7).
	// Each glyph is 8 rows of 5 bits.
	UserChars map[uint8][]byte
	// Clear and/or return home before calling Writer.
	ClearOnUpdate bool
	HomeOnUpdate  bool
	Writer        Writer
}

var DefaultOpts = Opts{
	LCDAddr:       aip31068.DefaultAddress,
	BacklightAddr: rgbbacklight.DefaultAddress,
	Cols:          16,
	Rows:          2,
	ClearOnUpdate: true,
}

const (
	maxCols = 0x40
	maxRows = 4
)

func (o *Opts) lcdAddr() uint16 {
	if o.LCDAddr == 0 {
		return aip31068.DefaultAddress
	}
	return o.LCDAddr
}

func (o *Opts) backlightAddr() uint16 {
	if o.BacklightAddr == 0 {
		return rgbbacklight.DefaultAddress
	}
	return o.BacklightAddr
}

func (o *Opts) validate() error {
	if o.Cols < 1 || o.Cols > maxCols {
		return fmt.Errorf("LCD displays can't have more than %d columns, got %d", maxCols, o.Cols)
	}
	if o.Rows < 1 || o.Rows > maxRows {
		return fmt.Errorf("LCD displays can't have more than %d rows, got %d", maxRows, o.Rows)
	}
	if o.lcdAddr() > 0x7f || o.backlightAddr() > 0x7f {
		return fmt.Errorf("invalid I²C address")
	}
	if o.lcdAddr() == o.backlightAddr() {
		return fmt.Errorf("text and backlight controllers share address %#x", o.lcdAddr())
	}
	for slot, glyph := range o.UserChars {
		if slot > 7 {
			return fmt.Errorf("user defined character at position %d, must be 0-7", slot)
		}
		if len(glyph) != 8 {
			return fmt.Errorf("user defined character %d has %d rows, want 8", slot, len(glyph))
		}
		for _, row := range glyph {
			if row > 0x1f {
				return fmt.Errorf("user defined character %d row %#x is wider than 5 dots", slot, row)
			}
		}
	}
	return nil
}
