// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aip31068

import (
	"fmt"
	"regexp"
	"time"

	"github.com/lestrrat-go/strftime"
)

// Formatted output is rendered into a buffer of this size first. Output
// that does not fit is dropped rather than truncated.
const formatBufferSize = 256

// Write sends p as data frames, one frame per byte. It stops at the first
// failed frame.
func (dev *Dev) Write(p []byte) (n int, err error) {
	for _, c := range p {
		if err = dev.send(c); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Write a string output to the display.
func (dev *Dev) WriteString(text string) (n int, err error) {
	return dev.Write([]byte(text))
}

// Print writes text at the current cursor position. There is no wrapping,
// text past the end of a row goes wherever the controller puts it.
func (dev *Dev) Print(text string) error {
	_, err := dev.WriteString(text)
	return err
}

// PrintAt moves the cursor and writes text.
func (dev *Dev) PrintAt(column, row uint8, text string) error {
	if err := dev.SetCursor(column, row); err != nil {
		return err
	}
	return dev.Print(text)
}

// Printf formats and writes text at the current cursor position. Nothing is
// sent if formatting fails or the result is empty or too long.
func (dev *Dev) Printf(format string, args ...any) error {
	text, ok := sprintf(format, args)
	if !ok {
		return nil
	}
	return dev.Print(text)
}

// PrintfAt is Printf at a position. The cursor is only moved when there is
// something to print.
func (dev *Dev) PrintfAt(column, row uint8, format string, args ...any) error {
	text, ok := sprintf(format, args)
	if !ok {
		return nil
	}
	return dev.PrintAt(column, row, text)
}

// Strftime writes t formatted with a C strftime pattern, e.g. "%H:%M:%S".
// Nothing is sent if the pattern is invalid or the result is empty or too
// long.
func (dev *Dev) Strftime(format string, t time.Time) error {
	s, err := strftime.Format(format, t)
	if err != nil {
		logger.Debugf("strftime %q: %v", format, err)
		return nil
	}
	text, ok := render(s)
	if !ok {
		return nil
	}
	return dev.Print(text)
}

// StrftimeAt moves the cursor and writes a formatted time. The cursor is
// always moved.
func (dev *Dev) StrftimeAt(column, row uint8, format string, t time.Time) error {
	if err := dev.SetCursor(column, row); err != nil {
		return err
	}
	return dev.Strftime(format, t)
}

// fmt reports formatting errors inline, e.g. "%!d(string=x)",
// "%!(EXTRA int=1)" or "%!(NOVERB)".
var fmtError = regexp.MustCompile(`%!\pL?\(`)

// sprintf formats args and reports whether fmt hit an error. Markers that
// were already part of an argument's text do not count.
func sprintf(format string, args []any) (string, bool) {
	s := fmt.Sprintf(format, args...)
	n := len(fmtError.FindAllStringIndex(s, -1))
	for _, a := range args {
		if n <= 0 {
			break
		}
		n -= len(fmtError.FindAllStringIndex(fmt.Sprint(a), -1))
	}
	if n > 0 {
		return "", false
	}
	return render(s)
}

// render drops empty output and output that does not fit the buffer.
func render(s string) (string, bool) {
	if len(s) == 0 || len(s) >= formatBufferSize {
		return "", false
	}
	return s, true
}

// LoadGlyph programs one of the eight CGRAM character slots. slot is masked
// to 0-7. The glyph is shown by printing the slot number as a character.
func (dev *Dev) LoadGlyph(slot uint8, bitmap [8]byte) error {
	slot &= 0x7
	if err := dev.command(cmdSetCGRAMAddr | slot<<3); err != nil {
		return err
	}
	_, err := dev.Write(bitmap[:])
	return err
}
