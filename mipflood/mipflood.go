package mipflood

// GenerateMips builds the coverage-weighted mip pyramid for an image. The
// first level is produced by the initial type-converting downscale; each
// further level by the float-to-float downscale, until the smaller dimension
// reaches 1. The returned pyramid is owned by the caller.
func GenerateMips(img *Image, mask *Mask, opts Options) (*Pyramid, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	if err := validateMask(mask, img.Width, img.Height); err != nil {
		return nil, err
	}

	p := newPyramid(img.Width, img.Height, img.ChannelStride)

	level := &p.Levels[0]
	runRows(level.Width, level.Height, img.ChannelStride, opts.MaxThreads, func(startRow, endRow int) {
		scaleDownDispatch(img, mask, level.Image, level.Mask, opts, startRow, endRow)
	})

	channels := newChannelSet(opts.ChannelMask, img.ChannelStride)
	for i := 1; i < len(p.Levels); i++ {
		prev := &p.Levels[i-1]
		next := &p.Levels[i]
		runRows(next.Width, next.Height, img.ChannelStride, opts.MaxThreads, func(startRow, endRow int) {
			scaleDownRows(next.Width, endRow, img.ChannelStride, prev.Image, prev.Mask, next.Image, next.Mask,
				opts.IsNormalMap, channels, opts.ScaleAlphaUnweighted, startRow)
		})
	}

	return p, nil
}

// CompositeMips walks the pyramid from the coarsest level upward, filling
// each level's holes with the nearest-neighbour upscale of the level below
// it. Afterwards every pixel of every level carries defined color in every
// active channel (unless the image had no coverage at all).
func CompositeMips(p *Pyramid, channelMask uint8, maxThreads uint8) error {
	if p == nil || len(p.Levels) == 0 {
		return newError(StatusUnknown, "mipflood: nil or empty pyramid")
	}
	if p.ChannelStride < 1 || p.ChannelStride > 8 {
		return newError(StatusUnsupportedChannelStride, "mipflood: channel stride must be in 1..8")
	}

	channels := newChannelSet(channelMask, p.ChannelStride)
	for i := len(p.Levels) - 2; i >= 0; i-- {
		coarse := &p.Levels[i+1]
		fine := &p.Levels[i]
		runRows(coarse.Width, coarse.Height, p.ChannelStride, maxThreads, func(startRow, endRow int) {
			compositeUpRows(coarse.Width, endRow, p.ChannelStride, coarse.Image, fine.Image, fine.Mask, channels, startRow)
		})
	}
	return nil
}

// FloodImage replaces the uncovered region of an image with a diffusion of
// its nearest covered colors: generate the weighted pyramid, composite it
// bottom-up, then flood the first level back into the image through the
// caller's original mask. Covered pixels are preserved exactly.
func FloodImage(img *Image, mask *Mask, opts Options) error {
	p, err := GenerateMips(img, mask, opts)
	if err != nil {
		return err
	}
	if err := CompositeMips(p, opts.ChannelMask, opts.MaxThreads); err != nil {
		return err
	}

	inputHeight := img.Height / 2
	runRows(img.Width/2, inputHeight, img.ChannelStride, opts.MaxThreads, func(startRow, endRow int) {
		finalCompositeDispatch(p.Levels[0].Image, img, mask, opts, startRow, endRow)
	})

	p.Free()
	return nil
}
