// Package qrcode renders short links as PNG QR codes.
package qrcode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	qr "github.com/skip2/go-qrcode"

	"github.com/MikhailRaia/shortlink/internal/pool"
)

// Fixed rendering parameters.
const (
	Size       = 200
	DarkColor  = "#000000"
	LightColor = "#ffffff"
	Level      = qr.Highest
)

const dataURIPrefix = "data:image/png;base64,"

var (
	// ErrEmptyText is returned when there is nothing to encode.
	ErrEmptyText = errors.New("empty text")
	// ErrTextTooLong is returned when text exceeds the capacity of a code at Level.
	ErrTextTooLong = errors.New("text too long for a qr code")
)

// Renderer encodes text into QR code images.
type Renderer struct {
	dark    color.Color
	light   color.Color
	buffers *pool.Pool[*bytes.Buffer]
}

// NewRenderer builds a Renderer using the fixed size, colors and level.
func NewRenderer() *Renderer {
	return &Renderer{
		dark:    toRGBA(DarkColor),
		light:   toRGBA(LightColor),
		buffers: pool.New(16, func() *bytes.Buffer { return new(bytes.Buffer) }),
	}
}

// Render writes a PNG encoding of text to w.
func (r *Renderer) Render(w io.Writer, text string) error {
	if text == "" {
		return ErrEmptyText
	}

	code, err := qr.New(text, Level)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTextTooLong, err)
	}
	code.ForegroundColor = r.dark
	code.BackgroundColor = r.light

	if err := code.Write(Size, w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// DataURI returns text rendered as an inline data:image/png URI.
func (r *Renderer) DataURI(text string) (string, error) {
	buf := r.buffers.Get()
	defer r.buffers.Put(buf)

	if err := r.Render(buf, text); err != nil {
		return "", err
	}

	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func toRGBA(hex string) color.RGBA {
	c, err := parseHexColor(hex)
	if err != nil {
		// Only called with the package constants.
		return color.RGBA{A: 0xff}
	}
	return c
}

func parseHexColor(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", hex)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}

	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}
