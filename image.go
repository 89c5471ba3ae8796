package rhi

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
)

// TexelsFromImage converts an image to tightly packed RGBA8 texel data
// suitable for UpdateTexture. Returns the pixel bytes and the image
// dimensions.
func TexelsFromImage(img image.Image) ([]byte, uint32, uint32) {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() && b.Min == (image.Point{}) {
		return rgba.Pix, uint32(b.Dx()), uint32(b.Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst.Pix, uint32(b.Dx()), uint32(b.Dy())
}

// ScaledTexelsFromImage converts an image to RGBA8 texel data at the given
// dimensions, resampling with a bilinear filter.
func ScaledTexelsFromImage(img image.Image, width, height uint32) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst.Pix
}

// CreateTextureFromImage creates an RGBA8 texture sized to the image and
// uploads its pixels. The texture is created with sampling and copy usage.
func (d *Device) CreateTextureFromImage(label string, img image.Image) (TextureHandle, error) {
	texels, width, height := TexelsFromImage(img)
	if width == 0 || height == 0 {
		return NilTexture(), fmt.Errorf("rhi: create texture %q from image: %w", label, ErrZeroSize)
	}
	h, err := d.CreateTexture(TextureDesc{
		Label:  label,
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return NilTexture(), err
	}
	if err := d.UpdateTexture(h, texels); err != nil {
		d.DestroyTexture(h)
		return NilTexture(), err
	}
	return h, nil
}
