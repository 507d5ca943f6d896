// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package groverrgb

import (
	"context"
	"time"
)

// DefaultUpdateInterval is used by Run when no interval is given.
const DefaultUpdateInterval = time.Second

// Update clears and/or homes the display as configured, then calls the
// Writer once.
func (dev *Dev) Update() error {
	if dev.opts.ClearOnUpdate {
		if err := dev.Clear(); err != nil {
			return err
		}
	}
	if dev.opts.HomeOnUpdate {
		if err := dev.Home(); err != nil {
			return err
		}
	}
	if dev.opts.Writer != nil {
		dev.opts.Writer(dev)
	}
	return nil
}

// Run calls Update right away and then every interval until ctx is done.
// Update errors are logged and do not stop the loop. Run must not be called
// concurrently with any other method of dev.
func (dev *Dev) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := dev.Update(); err != nil {
			logger.Warnf("update: %v", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
