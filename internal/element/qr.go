package element

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/animcompose/internal/composable"
)

func recoveryLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(s) {
	case "", "medium":
		return qrcode.Medium, nil
	case "low":
		return qrcode.Low, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	}
	return 0, fmt.Errorf("unknown qr recovery level %q", s)
}

func (r *Realizer) qrCode(d *composable.QRCode, w, h int) (Content, error) {
	level, err := recoveryLevel(d.Level)
	if err != nil {
		return nil, err
	}
	fg, err := composable.ParseColor(d.Foreground, color.NRGBA{A: 255})
	if err != nil {
		return nil, err
	}
	bg, err := composable.ParseColor(d.Background, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	if err != nil {
		return nil, err
	}

	q, err := qrcode.New(d.Content, level)
	if err != nil {
		return nil, fmt.Errorf("encoding qr content: %w", err)
	}
	q.ForegroundColor = fg
	q.BackgroundColor = bg
	return &Still{Image: centerIn(q.Image(min(w, h)), w, h)}, nil
}
