package ico

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
)

// AniConfig describes the animation layout of an ANI cursor.
type AniConfig struct {
	// FrameCount is the number of unique frames stored in the file.
	FrameCount int
	// FrameRate is the default display rate in jiffies (1/60 s).
	FrameRate int
	// FrameList optionally reorders/reuses frames by index. When set,
	// the animation plays these indices instead of 0..FrameCount-1.
	FrameList []int
	// RateList optionally gives a per-step rate in jiffies.
	RateList []int
}

const (
	aniHeaderSize = 36
	flagIconData  = 0x1
	flagSequence  = 0x2
)

// Steps returns the number of animation steps.
func (c AniConfig) Steps() int {
	if c.FrameList != nil {
		return len(c.FrameList)
	}
	return c.FrameCount
}

// sequenced reports whether the file needs 'rate' and 'seq ' chunks.
func (c AniConfig) sequenced() bool {
	return c.FrameList != nil || c.RateList != nil
}

// EncodeANI writes an animated cursor as a RIFF/ACON container.
// frames[i] holds the per-resolution images of frame i; every frame
// becomes an embedded icon in the 'fram' list.
func EncodeANI(w io.Writer, frames [][]image.Image, hs Hotspot, cfg AniConfig) error {
	if len(frames) != cfg.FrameCount {
		return fmt.Errorf("have %d frames, config declares %d", len(frames), cfg.FrameCount)
	}

	icons := make([][]byte, len(frames))
	for i, images := range frames {
		data, err := encodeIcon(images, hs)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		icons[i] = data
	}

	anih := encodeAniHeader(cfg)
	rate, seq := encodeSequence(cfg)

	framSize := 4 // "fram" list type
	for _, icon := range icons {
		framSize += 8 + len(icon)
	}

	riffSize := 4 + len(anih) + len(rate) + len(seq) + 8 + framSize

	buf := make([]byte, 0, 8+riffSize)
	u32 := func(v uint32) { buf = binary.LittleEndian.AppendUint32(buf, v) }

	buf = append(buf, "RIFF"...)
	u32(uint32(riffSize))
	buf = append(buf, "ACON"...)
	buf = append(buf, anih...)
	buf = append(buf, rate...)
	buf = append(buf, seq...)

	buf = append(buf, "LIST"...)
	u32(uint32(framSize))
	buf = append(buf, "fram"...)
	for _, icon := range icons {
		buf = append(buf, "icon"...)
		u32(uint32(len(icon)))
		buf = append(buf, icon...)
	}

	_, err := w.Write(buf)
	return err
}

func encodeAniHeader(cfg AniConfig) []byte {
	flags := uint32(flagIconData)
	if cfg.sequenced() {
		flags |= flagSequence
	}

	buf := make([]byte, 0, 8+aniHeaderSize)
	u32 := func(v uint32) { buf = binary.LittleEndian.AppendUint32(buf, v) }

	buf = append(buf, "anih"...)
	u32(aniHeaderSize)

	u32(aniHeaderSize)            // cbSizeof
	u32(uint32(cfg.FrameCount))   // cFrames
	u32(uint32(cfg.Steps()))      // cSteps
	u32(0)                        // cx
	u32(0)                        // cy
	u32(0)                        // cBitCount
	u32(0)                        // cPlanes
	u32(uint32(cfg.FrameRate))    // jifRate
	u32(flags)

	return buf
}

// encodeSequence builds the 'rate' and 'seq ' chunks. Both are present
// or absent together: players pair them, so a lone rate list still gets
// an identity sequence written alongside it.
func encodeSequence(cfg AniConfig) (rate, seq []byte) {
	if !cfg.sequenced() {
		return nil, nil
	}

	steps := cfg.Steps()

	rate = make([]byte, 0, 8+4*steps)
	rate = append(rate, "rate"...)
	rate = binary.LittleEndian.AppendUint32(rate, uint32(4*steps))
	for i := 0; i < steps; i++ {
		r := cfg.FrameRate
		if i < len(cfg.RateList) {
			r = cfg.RateList[i]
		}
		rate = binary.LittleEndian.AppendUint32(rate, uint32(r))
	}

	seq = make([]byte, 0, 8+4*steps)
	seq = append(seq, "seq "...)
	seq = binary.LittleEndian.AppendUint32(seq, uint32(4*steps))
	for i := 0; i < steps; i++ {
		idx := i
		if cfg.FrameList != nil {
			idx = cfg.FrameList[i]
		}
		seq = binary.LittleEndian.AppendUint32(seq, uint32(idx))
	}

	return rate, seq
}
