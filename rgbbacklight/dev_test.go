// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rgbbacklight

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

var recordingData = map[string][]i2ctest.IO{
	"TestStandard": {
		{Addr: 0x62, W: []uint8{0x0, 0x0}},
		{Addr: 0x62, W: []uint8{0x8, 0xff}},
		{Addr: 0x62, W: []uint8{0x1, 0x20}},
		{Addr: 0x62, W: []uint8{0x4, 0xff}},
		{Addr: 0x62, W: []uint8{0x3, 0x80}},
		{Addr: 0x62, W: []uint8{0x2, 0x0}},
		{Addr: 0x62, W: []uint8{0x7, 0x17}},
		{Addr: 0x62, W: []uint8{0x6, 0x7f}},
		{Addr: 0x62, W: []uint8{0x7, 0x0}},
		{Addr: 0x62, W: []uint8{0x6, 0xff}},
		{Addr: 0x62, W: []uint8{0x4, 0x0}},
		{Addr: 0x62, W: []uint8{0x3, 0x0}},
		{Addr: 0x62, W: []uint8{0x2, 0x0}}},
	"TestLegacyV5": {
		{Addr: 0x30, W: []uint8{0x0, 0x7}},
		{Addr: 0x30, W: []uint8{0x4, 0x15}},
		{Addr: 0x30, W: []uint8{0x6, 0xff}},
		{Addr: 0x30, W: []uint8{0x7, 0x80}},
		{Addr: 0x30, W: []uint8{0x8, 0x0}},
		{Addr: 0x30, W: []uint8{0x4, 0x2a}},
		{Addr: 0x30, W: []uint8{0x1, 0x6}},
		{Addr: 0x30, W: []uint8{0x2, 0x7f}},
		{Addr: 0x30, W: []uint8{0x4, 0x15}},
		{Addr: 0x30, W: []uint8{0x6, 0x0}},
		{Addr: 0x30, W: []uint8{0x7, 0x0}},
		{Addr: 0x30, W: []uint8{0x8, 0x0}}},
}

func hookSleep(t *testing.T) *[]time.Duration {
	var delays []time.Duration
	prev := sleep
	sleep = func(d time.Duration) { delays = append(delays, d) }
	t.Cleanup(func() { sleep = prev })
	return &delays
}

func exercise(t *testing.T, dev *Dev) {
	require.NoError(t, dev.Init())
	require.NoError(t, dev.RGB(0xff, 0x80, 0x00))
	require.NoError(t, dev.Blink(true))
	require.NoError(t, dev.Blink(false))
	require.NoError(t, dev.Halt())
}

func TestStandard(t *testing.T) {
	delays := hookSleep(t)
	bus := &i2ctest.Playback{Ops: recordingData["TestStandard"]}
	dev := New(bus, DefaultAddress)
	assert.Equal(t, StandardRGBController, dev.Variant())
	exercise(t, dev)
	assert.Empty(t, *delays)
	require.NoError(t, bus.Close())
	assert.NotEmpty(t, dev.String())
}

func TestLegacyV5(t *testing.T) {
	delays := hookSleep(t)
	bus := &i2ctest.Playback{Ops: recordingData["TestLegacyV5"]}
	dev := New(bus, LegacyV5Address)
	assert.Equal(t, LegacyV5Controller, dev.Variant())
	exercise(t, dev)
	assert.Equal(t, []time.Duration{200 * time.Microsecond}, *delays)
	require.NoError(t, bus.Close())
}

func TestVariantFor(t *testing.T) {
	for addr := uint16(0); addr < 0x80; addr++ {
		want := StandardRGBController
		if addr == 0x30 {
			want = LegacyV5Controller
		}
		assert.Equal(t, want, VariantFor(addr), "address %#x", addr)
	}
	assert.Equal(t, "LegacyV5Controller", LegacyV5Controller.String())
	assert.Equal(t, "StandardRGBController", StandardRGBController.String())
}

func TestBacklightEqualsRGB(t *testing.T) {
	for _, addr := range []uint16{DefaultAddress, LegacyV5Address, 0x63} {
		grey := &i2ctest.Record{}
		require.NoError(t, New(grey, addr).Backlight(200))
		rgb := &i2ctest.Record{}
		require.NoError(t, New(rgb, addr).RGBBacklight(200, 200, 200))
		assert.Equal(t, rgb.Ops, grey.Ops)
		assert.Len(t, grey.Ops, 3)
	}
}

func TestRGBOrder(t *testing.T) {
	rec := &i2ctest.Record{}
	require.NoError(t, New(rec, LegacyV5Address).RGBBacklight(1, 2, 3))
	require.Len(t, rec.Ops, 3)
	assert.Equal(t, []byte{0x06, 1}, rec.Ops[0].W)
	assert.Equal(t, []byte{0x07, 2}, rec.Ops[1].W)
	assert.Equal(t, []byte{0x08, 3}, rec.Ops[2].W)

	rec = &i2ctest.Record{}
	require.NoError(t, New(rec, DefaultAddress).RGBBacklight(1, 2, 3))
	require.Len(t, rec.Ops, 3)
	assert.Equal(t, []byte{0x04, 1}, rec.Ops[0].W)
	assert.Equal(t, []byte{0x03, 2}, rec.Ops[1].W)
	assert.Equal(t, []byte{0x02, 3}, rec.Ops[2].W)
}

type failBus struct {
	i2ctest.Record
}

var errBus = errors.New("nack")

func (f *failBus) Tx(addr uint16, w, r []byte) error {
	return errBus
}

func TestError(t *testing.T) {
	dev := New(&failBus{}, DefaultAddress)
	err := dev.Init()
	assert.ErrorIs(t, err, errBus)
	assert.Contains(t, err.Error(), "rgbbacklight")
	assert.ErrorIs(t, dev.RGB(1, 2, 3), errBus)
}
