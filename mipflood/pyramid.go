package mipflood

// MipLevel is one pyramid level: a float color buffer and its parallel
// binary coverage mask. Mask values are always 0 or 1; downstream code must
// only test against zero.
type MipLevel struct {
	Width  int
	Height int
	Image  []float32
	Mask   []uint8
}

// Pyramid owns the mip chain produced by GenerateMips. Levels[0] is half the
// original size; every further level halves again. All levels share the
// original image's channel stride.
type Pyramid struct {
	Levels        []MipLevel
	ChannelStride int
}

// LevelCount returns the number of generated levels,
// MipCount(originalWidth, originalHeight).
func (p *Pyramid) LevelCount() int {
	if p == nil {
		return 0
	}
	return len(p.Levels)
}

// Free drops the level buffers. The C surface requires an explicit teardown;
// here the buffers are garbage collected, so Free exists for API parity and
// to release references eagerly.
func (p *Pyramid) Free() {
	if p == nil {
		return
	}
	for i := range p.Levels {
		p.Levels[i].Image = nil
		p.Levels[i].Mask = nil
	}
	p.Levels = nil
}

func newPyramid(width, height, channelStride int) *Pyramid {
	count := MipCount(width, height)
	p := &Pyramid{
		Levels:        make([]MipLevel, count),
		ChannelStride: channelStride,
	}
	mipWidth := width / 2
	mipHeight := height / 2
	for i := 0; i < count; i++ {
		p.Levels[i] = MipLevel{
			Width:  mipWidth,
			Height: mipHeight,
			Image:  make([]float32, mipWidth*mipHeight*channelStride),
			Mask:   make([]uint8, mipWidth*mipHeight),
		}
		mipWidth /= 2
		mipHeight /= 2
	}
	return p
}
