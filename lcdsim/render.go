// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// Dot geometry of the rendered image.
const (
	dotSize  = 4
	cellW    = 6 * dotSize
	cellH    = 9 * dotSize
	margin   = 2 * dotSize
	fontSize = 7 * dotSize
)

// Character glyphs drawn for codes that have no ASCII equivalent.
const (
	glyphRight = '→'
	glyphLeft  = '←'
	glyphUser  = '▒'
	glyphROM   = '·'
)

var (
	faceOnce sync.Once
	face     font.Face
	faceErr  error
)

func loadFace() (font.Face, error) {
	faceOnce.Do(func() {
		f, err := truetype.Parse(gomono.TTF)
		if err != nil {
			faceErr = err
			return
		}
		face = truetype.NewFace(f, &truetype.Options{Size: fontSize})
	})
	return face, faceErr
}

// toRune maps a character code to what the terminal shows.
func toRune(c byte) rune {
	switch {
	case c < 0x10:
		return glyphUser
	case c == 0x7e:
		return glyphRight
	case c == 0x7f:
		return glyphLeft
	case c >= 0x20 && c < 0x7e:
		return rune(c)
	}
	return glyphROM
}

// Refresh prints the module to the console.
func (b *Bus) Refresh() error {
	return b.Render(b.w)
}

// Render writes the module to w: one bar in the backlight color followed by
// the text rows.
func (b *Bus) Render(w io.Writer) error {
	b.mu.Lock()
	c := b.color()
	lines := b.lines()
	b.mu.Unlock()

	// Build the whole frame first so it reaches the terminal in one write.
	var buf bytes.Buffer
	_, _ = buf.WriteString("\033[0m")
	for i := 0; i < b.opts.Cols+2; i++ {
		_, _ = io.WriteString(&buf, b.palette.Block(c))
	}
	_, _ = buf.WriteString("\033[0m\n")
	for _, l := range lines {
		_, _ = buf.WriteString("|")
		for i := 0; i < len(l); i++ {
			_, _ = buf.WriteRune(toRune(l[i]))
		}
		_, _ = buf.WriteString("|\n")
	}
	_, err := buf.WriteTo(w)
	return err
}

// Image draws the module as it would look, dot matrix included for custom
// characters.
func (b *Bus) Image() (image.Image, error) {
	f, err := loadFace()
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	bg := b.color()
	lines := b.lines()
	row, col, cursor := b.cursor()
	cgram := b.lcd.cgram
	b.mu.Unlock()

	width := 2*margin + b.opts.Cols*cellW
	height := 2*margin + b.opts.Rows*cellH
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	ink := inkFor(bg)
	dc.SetColor(ink)
	dc.SetFontFace(f)
	for r, l := range lines {
		y := float64(margin + r*cellH)
		for i := 0; i < len(l); i++ {
			x := float64(margin + i*cellW)
			ch := l[i]
			if ch < 0x10 {
				glyph := cgram[int(ch&7)*8 : int(ch&7)*8+8]
				for dy, bits := range glyph {
					for dx := 0; dx < 5; dx++ {
						if bits&(0x10>>uint(dx)) != 0 {
							dc.DrawRectangle(x+float64(dx*dotSize), y+float64(dy*dotSize), dotSize-1, dotSize-1)
						}
					}
				}
				dc.Fill()
				continue
			}
			if ch == ' ' {
				continue
			}
			dc.DrawStringAnchored(string(toRune(ch)), x+float64(cellW)/2, y+float64(cellH)/2, 0.5, 0.35)
		}
	}
	if cursor {
		x := float64(margin + col*cellW)
		y := float64(margin + row*cellH + 7*dotSize)
		dc.DrawRectangle(x, y, 5*dotSize, dotSize-1)
		dc.Fill()
	}
	return dc.Image(), nil
}

// SavePNG writes Image to path.
func (b *Bus) SavePNG(path string) error {
	img, err := b.Image()
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}

// inkFor picks dark text on bright backlights and light text otherwise.
func inkFor(bg color.NRGBA) color.Color {
	if int(bg.R)*299+int(bg.G)*587+int(bg.B)*114 > 128*1000 {
		return color.NRGBA{0x10, 0x10, 0x30, 0xff}
	}
	return color.NRGBA{0xe0, 0xe0, 0xff, 0xff}
}
