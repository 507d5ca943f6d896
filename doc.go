// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package grovelcd is a container for the Grove LCD RGB Backlight drivers.
//
// Use groverrgb for the assembled module. aip31068 and rgbbacklight drive
// the two chips on their own, lcdsim emulates the module and mqttbridge
// feeds it from an MQTT broker.
package grovelcd
