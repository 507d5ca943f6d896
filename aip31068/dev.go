// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// The aip31068 is an HD44780 compatible I²C driver chip. It is the text
// controller of the Grove LCD RGB Backlight module. Every transaction is a
// two byte frame: a control byte followed by one command or data byte.
//
// The driver keeps a shadow copy of the function set, display control and
// entry mode registers. Operations that change a single flag modify the
// shadow copy and then write the whole register, so unrelated flags are
// never lost.
//
// A Dev is not safe for concurrent use. Callers must serialize access.
//
// Implements periph.io/x/conn/display/TextDisplay
//
// # Datasheet
//
// https://support.newhavendisplay.com/hc/en-us/article_attachments/4414498095511
package aip31068

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
)

const (
	// DefaultAddress is the fixed I²C address of the text controller.
	DefaultAddress uint16 = 0x3e

	// Control bytes. Bit 7 (Co) is set for a single command byte, bit 6 (RS)
	// selects display memory.
	commandFrame byte = 0x80
	dataFrame    byte = 0x40

	packageName = "aip31068"
)

// Instructions.
const (
	cmdClearDisplay   byte = 0x01
	cmdReturnHome     byte = 0x02
	cmdEntryModeSet   byte = 0x04
	cmdDisplayControl byte = 0x08
	cmdCursorShift    byte = 0x10
	cmdFunctionSet    byte = 0x20
	cmdSetCGRAMAddr   byte = 0x40
	cmdSetDDRAMAddr   byte = 0x80

	// DDRAM base of the second row.
	row1Base byte = 0xc0

	shiftDisplay byte = 0x08
	shiftRight   byte = 0x04
)

// Entry mode register flags.
const (
	EntryShiftIncrement byte = 0x01
	EntryLeft           byte = 0x02
)

// Display control register flags.
const (
	BlinkOn   byte = 0x01
	CursorOn  byte = 0x02
	DisplayOn byte = 0x04
)

// Function set register flags.
const (
	Function5x10Dots byte = 0x04
	Function2Line    byte = 0x08
	Function8Bit     byte = 0x10
)

// Delays mandated by the controller.
const (
	firstFunctionSetDelay = 4500 * time.Microsecond
	functionSetDelay      = 150 * time.Microsecond
	clearDelay            = 2000 * time.Microsecond
)

var (
	ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)

	// sleep is replaced in tests to observe the mandated delays.
	sleep = time.Sleep

	logger = log.WithField("pkg", packageName)
)

// Registers is the shadow copy of the controller registers.
type Registers struct {
	Function byte
	Control  byte
	Entry    byte
}

type Dev struct {
	rows int
	cols int

	d    *i2c.Dev
	regs Registers
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// New creates an aip31068 based LCD. No bus traffic happens until Reset is
// called, the controller must be given time to power up first.
func New(bus i2c.Bus, address uint16, rows, cols int) (*Dev, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%s: invalid dimensions %dx%d", packageName, cols, rows)
	}
	return &Dev{
		d:    &i2c.Dev{Bus: bus, Addr: address},
		rows: rows,
		cols: cols,
	}, nil
}

// command sends a single command frame.
func (dev *Dev) command(value byte) error {
	logger.Tracef("command 0x%02x", value)
	return wrap(dev.d.Tx([]byte{commandFrame, value}, nil))
}

// send sends a single data frame.
func (dev *Dev) send(value byte) error {
	logger.Tracef("data 0x%02x", value)
	return wrap(dev.d.Tx([]byte{dataFrame, value}, nil))
}

// Reset runs the function set handshake. The command is sent four times with
// the delays used by the vendor firmware; the controller may still be in its
// own reset after the first sends.
//
// The two line bit is only set for modules with more than one row. The
// vendor firmware sets it unconditionally.
func (dev *Dev) Reset() error {
	if dev.rows > 1 {
		dev.regs.Function |= Function2Line
	}
	delays := []time.Duration{firstFunctionSetDelay, functionSetDelay, functionSetDelay, 0}
	for i, delay := range delays {
		if err := dev.command(cmdFunctionSet | dev.regs.Function); err != nil {
			return err
		}
		logger.Tracef("function set sent (transmission %d)", i+1)
		if delay > 0 {
			sleep(delay)
		}
	}
	return nil
}

// Registers returns a copy of the shadow registers.
func (dev *Dev) Registers() Registers {
	return dev.regs
}

func (dev *Dev) writeControl() error {
	return dev.command(cmdDisplayControl | dev.regs.Control)
}

func (dev *Dev) writeEntry() error {
	return dev.command(cmdEntryModeSet | dev.regs.Entry)
}

func (dev *Dev) setControl(flag byte, on bool) error {
	if on {
		dev.regs.Control |= flag
	} else {
		dev.regs.Control &^= flag
	}
	return dev.writeControl()
}

func (dev *Dev) setEntry(flag byte, on bool) error {
	if on {
		dev.regs.Entry |= flag
	} else {
		dev.regs.Entry &^= flag
	}
	return dev.writeEntry()
}

// Turn the display on / off
func (dev *Dev) Display(on bool) error {
	return dev.setControl(DisplayOn, on)
}

// ShowCursor turns the underline cursor on or off.
func (dev *Dev) ShowCursor(on bool) error {
	return dev.setControl(CursorOn, on)
}

// BlinkCursor turns the blinking block cursor on or off.
func (dev *Dev) BlinkCursor(on bool) error {
	return dev.setControl(BlinkOn, on)
}

// SetEntryMode replaces the entry mode register.
func (dev *Dev) SetEntryMode(flags byte) error {
	dev.regs.Entry = flags
	return dev.writeEntry()
}

// LeftToRight makes text flow left to right from the cursor.
func (dev *Dev) LeftToRight() error {
	return dev.setEntry(EntryLeft, true)
}

// RightToLeft makes text flow right to left from the cursor.
func (dev *Dev) RightToLeft() error {
	return dev.setEntry(EntryLeft, false)
}

// Enable/Disable auto scroll
func (dev *Dev) AutoScroll(enabled bool) error {
	return dev.setEntry(EntryShiftIncrement, enabled)
}

// ScrollDisplayLeft shifts the whole display one position left without
// changing DDRAM.
func (dev *Dev) ScrollDisplayLeft() error {
	return dev.command(cmdCursorShift | shiftDisplay)
}

// ScrollDisplayRight shifts the whole display one position right.
func (dev *Dev) ScrollDisplayRight() error {
	return dev.command(cmdCursorShift | shiftDisplay | shiftRight)
}

// Clear the display and move the cursor home.
func (dev *Dev) Clear() error {
	if err := dev.command(cmdClearDisplay); err != nil {
		return err
	}
	sleep(clearDelay)
	return nil
}

// Move the cursor home (MinRow(),MinCol())
func (dev *Dev) Home() error {
	if err := dev.command(cmdReturnHome); err != nil {
		return err
	}
	sleep(clearDelay)
	return nil
}

// SetCursor moves the cursor to a zero based column and row. Row 0 uses the
// first DDRAM base, any other row the second one. The column is not checked
// against the display width.
func (dev *Dev) SetCursor(column, row uint8) error {
	if row == 0 {
		return dev.command(column | cmdSetDDRAMAddr)
	}
	return dev.command(column | row1Base)
}

// Set the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (dev *Dev) Cursor(modes ...display.CursorMode) error {
	ctrl := dev.regs.Control
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			ctrl &^= CursorOn | BlinkOn
		case display.CursorUnderline:
			ctrl |= CursorOn
		case display.CursorBlock, display.CursorBlink:
			ctrl |= BlinkOn
		default:
			return fmt.Errorf("%s: unexpected cursor: %d", packageName, mode)
		}
	}
	dev.regs.Control = ctrl
	return dev.writeControl()
}

// Halt clears the display and turns it off. The display is turned off even
// if clearing fails; the first error is returned.
func (dev *Dev) Halt() error {
	err := dev.Clear()
	if offErr := dev.Display(false); err == nil {
		err = offErr
	}
	return err
}

// Return the min column position.
func (dev *Dev) MinCol() int {
	return 1
}

// Return the min row position.
func (dev *Dev) MinRow() int {
	return 1
}

// Return the number of columns the display supports
func (dev *Dev) Cols() int {
	return dev.cols
}

// Return the number of rows the display supports.
func (dev *Dev) Rows() int {
	return dev.rows
}

// Move the cursor forward or backward.
func (dev *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Backward:
		return dev.command(cmdCursorShift)
	case display.Forward:
		return dev.command(cmdCursorShift | shiftRight)
	default:
		return ErrNotImplemented
	}
}

// Move the cursor to arbitrary position. Unlike SetCursor, the position is
// one based and checked against the display dimensions. Rows three and four
// follow the usual HD44780 layout.
func (dev *Dev) MoveTo(row, col int) error {
	if row < dev.MinRow() || row > dev.rows || col < dev.MinCol() || col > dev.cols {
		return fmt.Errorf("%s.MoveTo(%d,%d) value out of range", packageName, row, col)
	}
	offsets := []int{0x00, 0x40, dev.cols, 0x40 + dev.cols}
	if row > len(offsets) {
		return fmt.Errorf("%s.MoveTo(%d,%d) value out of range", packageName, row, col)
	}
	return dev.command(cmdSetDDRAMAddr | byte(offsets[row-1]+col-1))
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s{%s} Rows: %d Cols: %d", packageName, dev.d, dev.rows, dev.cols)
}

var _ conn.Resource = &Dev{}
var _ display.TextDisplay = &Dev{}
