// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging normalises uploaded images before they are stored. Wide
// images are scaled down to a maximum width so editor content never ships
// multi-megabyte originals. Pure Go, no cgo.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	// DefaultMaxWidth is the widest image kept for content.
	DefaultMaxWidth = 1920

	// MaxPixels bounds the decoded size of an upload (about 50 megapixels).
	MaxPixels = 50_000_000

	jpegQuality = 82
)

// ErrUnsupported is returned when the upload is not a decodable image.
var ErrUnsupported = errors.New("unsupported image format")

// ErrTooManyPixels is returned when the declared dimensions exceed MaxPixels.
var ErrTooManyPixels = errors.New("image dimensions too large")

// Result is a processed image ready for upload.
type Result struct {
	Data        []byte
	ContentType string
	Ext         string // including the dot
	Width       int
	Height      int
}

// Fit decodes src and scales it down to maxWidth when wider, preserving the
// aspect ratio. PNGs stay PNG to keep transparency; GIFs are passed through
// untouched so animations survive; everything else is re-encoded as JPEG.
func Fit(src io.Reader, maxWidth int) (*Result, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if format == "gif" {
		return &Result{Data: raw, ContentType: "image/gif", Ext: ".gif", Width: w, Height: h}, nil
	}

	if w > maxWidth {
		newH := h * maxWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxWidth, newH
	}

	var buf bytes.Buffer
	res := &Result{Width: w, Height: h}
	if format == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		res.ContentType, res.Ext = "image/png", ".png"
	} else {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		res.ContentType, res.Ext = "image/jpeg", ".jpg"
	}
	res.Data = buf.Bytes()
	return res, nil
}
