// Package ico encodes Windows cursor files: static CUR (an ICO
// variant carrying a hotspot) and animated ANI (a RIFF/ACON container
// of embedded icons). All fields are little-endian.
package ico

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
)

// Hotspot is the cursor click point, normalized to [0, 1] of the image
// size so a single value serves every resolution.
type Hotspot struct {
	X, Y float64
}

const (
	iconDirSize   = 6
	iconEntrySize = 16
	cursorType    = 2 // idType for cursors; 1 would be a plain icon
)

// EncodeCUR writes a static multi-resolution cursor. images holds one
// square frame per resolution.
func EncodeCUR(w io.Writer, images []image.Image, hs Hotspot) error {
	data, err := encodeIcon(images, hs)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// encodeIcon builds the ICONDIR + ICONDIRENTRY table + DIB blocks
// shared by CUR files and the per-frame icons inside ANI files.
func encodeIcon(images []image.Image, hs Hotspot) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no frames to encode")
	}

	blocks := make([][]byte, len(images))
	total := iconDirSize + iconEntrySize*len(images)
	for i, img := range images {
		block, err := encodeDIB(img)
		if err != nil {
			return nil, err
		}
		blocks[i] = block
		total += len(block)
	}

	buf := make([]byte, 0, total)
	u16 := func(v uint16) { buf = binary.LittleEndian.AppendUint16(buf, v) }
	u32 := func(v uint32) { buf = binary.LittleEndian.AppendUint32(buf, v) }

	// ICONDIR
	u16(0)
	u16(cursorType)
	u16(uint16(len(images)))

	offset := iconDirSize + iconEntrySize*len(images)
	for i, img := range images {
		size := img.Bounds().Dx()
		buf = append(buf,
			uint8(size), // bWidth; 256 wraps to 0 by definition
			uint8(size), // bHeight
			0,           // bColorCount, unused at 32bpp
			0,           // bReserved
		)
		u16(uint16(float64(size) * hs.X)) // hotspot X
		u16(uint16(float64(size) * hs.Y)) // hotspot Y
		u32(uint32(len(blocks[i])))       // dwBytesInRes
		u32(uint32(offset))               // dwImageOffset
		offset += len(blocks[i])
	}
	for _, block := range blocks {
		buf = append(buf, block...)
	}

	return buf, nil
}
