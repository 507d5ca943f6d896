// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates a Grove LCD RGB Backlight module behind an
// i2c.Bus.
//
// The Bus decodes the frames sent to the text controller and to the
// backlight controller and keeps the resulting display memory and
// registers. The content can be printed to the terminal using ANSI color
// codes or drawn to an image.
//
// Useful while the real module is still in the mail.
package lcdsim

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/grovelcd/rgbbacklight"
)

// Opts represents the options available for the emulated module.
type Opts struct {
	// LCDAddr is the text controller address. 0x3e if 0.
	LCDAddr uint16
	// BacklightAddr is the backlight controller address. 0x62 if 0. The
	// backlight register map follows the address like on real boards.
	BacklightAddr uint16
	Cols          int
	Rows          int
	Palette       *ansi256.Palette

	_ struct{}
}

// DefaultOpts is a 16x2 module with the standard backlight controller.
var DefaultOpts = Opts{
	LCDAddr:       0x3e,
	BacklightAddr: rgbbacklight.DefaultAddress,
	Cols:          16,
	Rows:          2,
}

// Frame is one write received by the Bus.
type Frame struct {
	Addr uint16
	W    []byte
}

// ErrRead is returned when a read is attempted; the emulated module is
// write only.
var ErrRead = errors.New("lcdsim: read not supported")

// Text controller control byte bits.
const (
	controlContinue byte = 0x80
	controlData     byte = 0x40
)

// Text controller register bits.
const (
	entryIncrement byte = 0x02
	entryShift     byte = 0x01
	controlDisplay byte = 0x04
	controlCursor  byte = 0x02
	controlBlink   byte = 0x01
	function2Line  byte = 0x08
	shiftDisplay   byte = 0x08
	shiftRight     byte = 0x04
)

// Characters per line in two line mode, and in one line mode.
const (
	lineLen2 = 40
	lineLen1 = 80
)

// lcd is the state of the text controller.
type lcd struct {
	ddram    [0x80]byte
	cgram    [64]byte
	ac       byte
	cg       bool
	function byte
	control  byte
	entry    byte
	shift    int
}

// PCA9633 register offsets.
const (
	regMode1   = 0x00
	regMode2   = 0x01
	regPWM0    = 0x02
	regPWM1    = 0x03
	regPWM2    = 0x04
	regGrpPWM  = 0x06
	regGrpFreq = 0x07
	regLEDOut  = 0x08

	mode1Sleep  byte = 0x10
	mode2Blink  byte = 0x20
	legacyBlink byte = 0x2a
)

// Bus is an emulated I²C bus with a Grove LCD RGB Backlight module
// attached. It is safe for concurrent use.
type Bus struct {
	w       io.Writer
	opts    Opts
	palette ansi256.Palette
	variant rgbbacklight.Variant

	mu     sync.Mutex
	lcd    lcd
	bl     [16]byte
	frames []Frame
}

// New returns an emulated bus that prints to the console.
//
// Use default options if nil is used.
func New(opts *Opts) (*Bus, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.LCDAddr == 0 {
		o.LCDAddr = DefaultOpts.LCDAddr
	}
	if o.BacklightAddr == 0 {
		o.BacklightAddr = DefaultOpts.BacklightAddr
	}
	if o.LCDAddr == o.BacklightAddr {
		return nil, fmt.Errorf("lcdsim: both devices at %#x", o.LCDAddr)
	}
	if o.Cols < 1 || o.Cols > lineLen2 || o.Rows < 1 || o.Rows > 4 {
		return nil, fmt.Errorf("lcdsim: unsupported geometry %dx%d", o.Cols, o.Rows)
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	b := &Bus{
		w:       colorable.NewColorableStdout(),
		opts:    o,
		palette: *p,
		variant: rgbbacklight.VariantFor(o.BacklightAddr),
	}
	b.powerOn()
	return b, nil
}

// powerOn loads the reset values of both chips.
func (b *Bus) powerOn() {
	b.lcd = lcd{entry: entryIncrement}
	for i := range b.lcd.ddram {
		b.lcd.ddram[i] = ' '
	}
	b.bl = [16]byte{}
	if b.variant == rgbbacklight.StandardRGBController {
		b.bl[regMode1] = 0x11
		b.bl[regMode2] = 0x01
		b.bl[regGrpPWM] = 0xff
	}
}

func (b *Bus) String() string {
	return fmt.Sprintf("lcdsim(%#x, %#x)", b.opts.LCDAddr, b.opts.BacklightAddr)
}

// Close implements i2c.BusCloser. It is a noop.
func (b *Bus) Close() error {
	return nil
}

// SetSpeed implements i2c.Bus. It is a noop.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if len(r) != 0 {
		return ErrRead
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch addr {
	case b.opts.LCDAddr:
		if err := b.lcdWrite(w); err != nil {
			return err
		}
	case b.opts.BacklightAddr:
		if len(w) < 2 {
			return fmt.Errorf("lcdsim: short backlight frame % x", w)
		}
		// Auto increment is assumed; the driver only sends single writes.
		for i, v := range w[1:] {
			b.bl[(int(w[0])+i)&0x0f] = v
		}
	default:
		return fmt.Errorf("lcdsim: no device at %#x", addr)
	}
	b.frames = append(b.frames, Frame{Addr: addr, W: append([]byte(nil), w...)})
	return nil
}

// lcdWrite decodes a control byte stream. A control byte with the continue
// bit set applies to a single byte; otherwise it applies to every remaining
// byte.
func (b *Bus) lcdWrite(w []byte) error {
	for len(w) != 0 {
		ctl := w[0]
		w = w[1:]
		if len(w) == 0 {
			return errors.New("lcdsim: control byte without payload")
		}
		n := len(w)
		if ctl&controlContinue != 0 {
			n = 1
		}
		for _, v := range w[:n] {
			if ctl&controlData != 0 {
				b.lcd.data(v)
			} else {
				b.lcd.command(v)
			}
		}
		w = w[n:]
	}
	return nil
}

func (l *lcd) command(c byte) {
	switch {
	case c&0x80 != 0:
		l.ac = c & 0x7f
		l.cg = false
	case c&0x40 != 0:
		l.ac = c & 0x3f
		l.cg = true
	case c&0x20 != 0:
		l.function = c & 0x1c
	case c&0x10 != 0:
		if c&shiftDisplay != 0 {
			if c&shiftRight != 0 {
				l.scroll(-1)
			} else {
				l.scroll(1)
			}
		} else if c&shiftRight != 0 {
			l.step(1)
		} else {
			l.step(-1)
		}
	case c&0x08 != 0:
		l.control = c & 0x07
	case c&0x04 != 0:
		l.entry = c & 0x03
	case c&0x02 != 0:
		l.ac, l.cg, l.shift = 0, false, 0
	case c == 0x01:
		for i := range l.ddram {
			l.ddram[i] = ' '
		}
		l.ac, l.cg, l.shift = 0, false, 0
		l.entry |= entryIncrement
	}
}

func (l *lcd) data(v byte) {
	delta := -1
	if l.entry&entryIncrement != 0 {
		delta = 1
	}
	if l.cg {
		l.cgram[l.ac&0x3f] = v
		l.step(delta)
		return
	}
	l.ddram[l.ac&0x7f] = v
	l.step(delta)
	if l.entry&entryShift != 0 {
		l.scroll(delta)
	}
}

func (l *lcd) lineLen() int {
	if l.function&function2Line != 0 {
		return lineLen2
	}
	return lineLen1
}

// step moves the address counter, wrapping from the end of the first line
// to the start of the second one and back.
func (l *lcd) step(delta int) {
	if l.cg {
		l.ac = byte(int(l.ac)+delta) & 0x3f
		return
	}
	if l.function&function2Line == 0 {
		l.ac = byte((int(l.ac) + delta + lineLen1) % lineLen1)
		return
	}
	line := l.ac & 0x40
	pos := int(l.ac&0x3f) + delta
	switch {
	case pos >= lineLen2:
		pos = 0
		line ^= 0x40
	case pos < 0:
		pos = lineLen2 - 1
		line ^= 0x40
	}
	l.ac = line | byte(pos)
}

// scroll shifts the visible window; positive moves the text left.
func (l *lcd) scroll(delta int) {
	n := l.lineLen()
	l.shift = ((l.shift+delta)%n + n) % n
}

// cell returns the DDRAM address shown at row, col.
func (l *lcd) cell(row, col, cols int) int {
	n := l.lineLen()
	line, start := 0, 0
	if n == lineLen2 {
		if row&1 != 0 {
			line = 0x40
		}
		if row >= 2 {
			start = cols
		}
	} else if row != 0 {
		return -1
	}
	return line + (start+col+l.shift)%n
}

// Frames returns every write received so far.
func (b *Bus) Frames() []Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Frame(nil), b.frames...)
}

// Lines returns the raw character codes visible on each row. Rows are
// blank while the display is off.
func (b *Bus) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lines()
}

func (b *Bus) lines() []string {
	out := make([]string, b.opts.Rows)
	for r := range out {
		row := make([]byte, b.opts.Cols)
		for c := range row {
			row[c] = ' '
			if b.lcd.control&controlDisplay == 0 {
				continue
			}
			if a := b.lcd.cell(r, c, b.opts.Cols); a >= 0 {
				row[c] = b.lcd.ddram[a]
			}
		}
		out[r] = string(row)
	}
	return out
}

// DisplayOn reports whether the text controller output is enabled.
func (b *Bus) DisplayOn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lcd.control&controlDisplay != 0
}

// Cursor returns the cursor position when it is visible on screen.
func (b *Bus) Cursor() (row, col int, visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor()
}

func (b *Bus) cursor() (int, int, bool) {
	if b.lcd.cg || b.lcd.control&controlDisplay == 0 || b.lcd.control&(controlCursor|controlBlink) == 0 {
		return 0, 0, false
	}
	for r := 0; r < b.opts.Rows; r++ {
		for c := 0; c < b.opts.Cols; c++ {
			if b.lcd.cell(r, c, b.opts.Cols) == int(b.lcd.ac) {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// Glyph returns the bitmap stored in a custom character slot.
func (b *Bus) Glyph(slot uint8) [8]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var g [8]byte
	copy(g[:], b.lcd.cgram[int(slot&7)*8:])
	return g
}

// Color returns the steady backlight color.
func (b *Bus) Color() color.NRGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.color()
}

func (b *Bus) color() color.NRGBA {
	c := color.NRGBA{A: 255}
	if b.variant == rgbbacklight.LegacyV5Controller {
		if b.bl[0x00] == 0 {
			return c
		}
		c.R, c.G, c.B = b.bl[0x06], b.bl[0x07], b.bl[0x08]
		return c
	}
	if b.bl[regMode1]&mode1Sleep != 0 {
		return c
	}
	c.B = b.channel(0, regPWM0)
	c.G = b.channel(1, regPWM1)
	c.R = b.channel(2, regPWM2)
	return c
}

// channel applies the LEDOUT state of one PCA9633 output.
func (b *Bus) channel(led uint, reg int) byte {
	pwm := b.bl[reg]
	switch (b.bl[regLEDOut] >> (2 * led)) & 3 {
	case 0:
		return 0
	case 1:
		return 0xff
	case 2:
		return pwm
	}
	if b.bl[regMode2]&mode2Blink != 0 {
		return pwm
	}
	return byte(int(pwm) * int(b.bl[regGrpPWM]) / 0xff)
}

// Blinking reports whether the backlight hardware blink is enabled.
func (b *Bus) Blinking() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.variant == rgbbacklight.LegacyV5Controller {
		return b.bl[0x04] == legacyBlink
	}
	return b.bl[regMode2]&mode2Blink != 0 && b.bl[regGrpPWM] != 0xff
}

var _ i2c.BusCloser = &Bus{}
var _ fmt.Stringer = &Bus{}
