package ico

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
)

// encodeDIB encodes a square image as the 32-bit DIB block used inside
// cursor entries: a 40-byte BITMAPINFOHEADER with doubled height,
// bottom-up BGRA rows, then the 1-bit AND transparency mask.
func encodeDIB(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	size := bounds.Dx()
	if bounds.Dy() != size {
		return nil, fmt.Errorf("image is %dx%d, cursor frames must be square", bounds.Dx(), bounds.Dy())
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(image.Rect(0, 0, size, size))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	colorTableSize := size * size * 4
	maskSize := (size*size + 7) / 8
	maskSize += maskSize & 1 // end the block at a WORD boundary
	imageSize := colorTableSize + maskSize

	buf := make([]byte, 0, 40+imageSize)
	u16 := func(v uint16) { buf = binary.LittleEndian.AppendUint16(buf, v) }
	u32 := func(v uint32) { buf = binary.LittleEndian.AppendUint32(buf, v) }

	// BITMAPINFOHEADER
	u32(40)                 // biSize
	u32(uint32(size))       // biWidth
	u32(uint32(size * 2))   // biHeight, doubled to cover the AND mask
	u16(1)                  // biPlanes
	u16(32)                 // biBitCount
	u32(0)                  // biCompression
	u32(uint32(imageSize))  // biSizeImage
	u32(0)                  // biXPelsPerMeter
	u32(0)                  // biYPelsPerMeter
	u32(0)                  // biClrUsed
	u32(0)                  // biClrImportant

	// Pixel rows run bottom-up, left to right. Fully transparent pixels
	// are zeroed in the color table and flagged in the AND mask.
	mask := make([]byte, maskSize)
	bit := 0
	for y := size - 1; y >= 0; y-- {
		for x := 0; x < size; x++ {
			off := rgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b, a := rgba.Pix[off], rgba.Pix[off+1], rgba.Pix[off+2], rgba.Pix[off+3]
			if a == 0 {
				r, g, b = 0, 0, 0
				mask[bit/8] |= 1 << (7 - bit%8)
			}
			buf = append(buf, b, g, r, a)
			bit++
		}
	}
	buf = append(buf, mask...)

	return buf, nil
}
