// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole(t *testing.T) {
	dev, bus := newSim(t)
	var refreshed int
	c := newConsole(dev, func() { refreshed++ })

	require.NoError(t, c.exec("print", []string{"hello", "world"}))
	assert.Equal(t, "hello world", strings.TrimSpace(bus.Lines()[0]))
	require.NoError(t, c.exec("printat", []string{"2", "1", "at"}))
	assert.Equal(t, "  at", strings.TrimRight(bus.Lines()[1], " "))

	require.NoError(t, c.exec("backlight", []string{"0x10", "32", "0b110000"}))
	assert.Equal(t, color.NRGBA{0x10, 32, 48, 0xff}, bus.Color())
	require.NoError(t, c.exec("backlight", []string{"7"}))
	assert.Equal(t, color.NRGBA{7, 7, 7, 0xff}, bus.Color())
	require.NoError(t, c.exec("backlight", []string{"off"}))
	assert.Equal(t, color.NRGBA{A: 0xff}, bus.Color())

	require.NoError(t, c.exec("blink", []string{"on"}))
	assert.True(t, bus.Blinking())
	require.NoError(t, c.exec("blink", []string{"off"}))

	require.NoError(t, c.exec("glyph", []string{"1", "000a1f1f0e040000"}))
	assert.Equal(t, [8]byte{0x00, 0x0a, 0x1f, 0x1f, 0x0e, 0x04, 0x00, 0x00}, bus.Glyph(1))

	require.NoError(t, c.exec("clear", nil))
	assert.Equal(t, strings.Repeat(" ", 16), bus.Lines()[0])
	require.NoError(t, c.exec("print", []string{"ab"}))
	require.NoError(t, c.exec("scroll", []string{"left"}))
	assert.Equal(t, "b", strings.TrimSpace(bus.Lines()[0]))
	require.NoError(t, c.exec("home", nil))

	require.NoError(t, c.exec("cursor", []string{"underline", "blink"}))
	_, _, visible := bus.Cursor()
	assert.True(t, visible)
	require.NoError(t, c.exec("cursor", []string{"off"}))

	require.NoError(t, c.exec("display", []string{"off"}))
	assert.False(t, bus.DisplayOn())
	require.NoError(t, c.exec("display", []string{"on"}))
	assert.True(t, bus.DisplayOn())

	assert.Equal(t, 16, refreshed)
}

func TestConsoleErrors(t *testing.T) {
	dev, _ := newSim(t)
	var refreshed int
	c := newConsole(dev, func() { refreshed++ })
	bad := []struct {
		name string
		args []string
	}{
		{"nope", nil},
		{"printat", []string{"1", "2"}},
		{"printat", []string{"x", "0", "a"}},
		{"printat", []string{"0", "256", "a"}},
		{"clear", []string{"now"}},
		{"display", nil},
		{"display", []string{"maybe"}},
		{"cursor", nil},
		{"cursor", []string{"square"}},
		{"backlight", nil},
		{"backlight", []string{"1", "2"}},
		{"backlight", []string{"300"}},
		{"glyph", []string{"0", "zz"}},
		{"glyph", []string{"0", "0011"}},
		{"scroll", []string{"up"}},
	}
	for _, b := range bad {
		assert.Error(t, c.exec(b.name, b.args), "%s %v", b.name, b.args)
	}
	assert.Zero(t, refreshed)
}
