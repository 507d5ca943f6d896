// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package aip31068

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
)

// event is either a bus write or a delay.
type event struct {
	addr  uint16
	w     []byte
	delay time.Duration
}

func (e event) String() string {
	if e.w == nil {
		return fmt.Sprintf("sleep(%s)", e.delay)
	}
	return fmt.Sprintf("0x%02x:% x", e.addr, e.w)
}

// timeline is an i2c.Bus that records writes and the delays between them.
// failAt makes the n-th write (1 based) fail.
type timeline struct {
	events []event
	writes int
	failAt int
}

var errBus = errors.New("bus failure")

func (tl *timeline) String() string { return "timeline" }

func (tl *timeline) Tx(addr uint16, w, r []byte) error {
	tl.writes++
	if tl.failAt != 0 && tl.writes == tl.failAt {
		return errBus
	}
	tl.events = append(tl.events, event{addr: addr, w: append([]byte{}, w...)})
	return nil
}

func (tl *timeline) SetSpeed(f physic.Frequency) error { return nil }

func (tl *timeline) frames() [][]byte {
	var out [][]byte
	for _, e := range tl.events {
		if e.w != nil {
			out = append(out, e.w)
		}
	}
	return out
}

func (tl *timeline) reset() {
	tl.events = nil
}

// newTimeline returns a recording bus and hooks sleep so delays show up in
// the same event list.
func newTimeline(t *testing.T) *timeline {
	tl := &timeline{}
	prev := sleep
	sleep = func(d time.Duration) {
		tl.events = append(tl.events, event{delay: d})
	}
	t.Cleanup(func() { sleep = prev })
	return tl
}
