// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image/color"
	"strings"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GermanBionicSystems/grovelcd/groverrgb"
	"github.com/GermanBionicSystems/grovelcd/lcdsim"
	"github.com/GermanBionicSystems/grovelcd/mqttbridge"
)

func newSim(t *testing.T) (*groverrgb.Dev, *lcdsim.Bus) {
	bus, err := lcdsim.New(nil)
	require.NoError(t, err)
	dev, err := groverrgb.New(bus, nil)
	require.NoError(t, err)
	require.NoError(t, dev.Setup())
	return dev, bus
}

func TestParseSize(t *testing.T) {
	cols, rows, err := parseSize("20X4")
	require.NoError(t, err)
	assert.Equal(t, 20, cols)
	assert.Equal(t, 4, rows)
	for _, bad := range []string{"", "16", "ax2", "16xb"} {
		_, _, err := parseSize(bad)
		assert.Error(t, err, "%q", bad)
	}
}

func TestParseAddr(t *testing.T) {
	a, err := parseAddr("lcd", 0x3e)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x3e), a)
	a, err = parseAddr("backlight", 0x7f)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x7f), a)
	for _, bad := range []uint{0x80, 0x1003e} {
		_, err := parseAddr("lcd", bad)
		assert.Error(t, err, "%#x", bad)
	}
}

func TestWriterClock(t *testing.T) {
	dev, bus := newSim(t)
	newWriter("clock", nil, nil)(dev)
	assert.Equal(t, "clock", strings.TrimSpace(bus.Lines()[0]))
}

func TestWriterFeed(t *testing.T) {
	dev, bus := newSim(t)
	feed := mqttbridge.NewFeed(paho.NewClientOptions(), "")
	w := newWriter("clock", feed, nil)

	require.NoError(t, feed.Handle("line/1", []byte("second")))
	w(dev)
	assert.Equal(t, "clock", strings.TrimSpace(bus.Lines()[0]))
	assert.Equal(t, "second", strings.TrimSpace(bus.Lines()[1]))

	require.NoError(t, feed.Handle("line/0", []byte("first")))
	require.NoError(t, feed.Handle("backlight", []byte("10,20,30")))
	w(dev)
	assert.Equal(t, "first", strings.TrimSpace(bus.Lines()[0]))
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, bus.Color())
}
