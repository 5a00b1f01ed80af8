package mipflood

// compositeUpRows is the hole-filling upscale kernel: each pixel of the
// coarser mip is written, nearest-neighbour, into the four child positions
// of the finer mip wherever the finer mask is 0. The mask is read-only.
func compositeUpRows(
	inputWidth, endRow, channelStride int,
	inputImage []float32,
	outputImage []float32,
	outputMask []uint8,
	channels channelSet,
	startRow int,
) {
	outputWidth := inputWidth * 2

	for y := startRow; y < endRow; y++ {
		for x := 0; x < inputWidth; x++ {
			tIdx0 := 2*y*outputWidth + 2*x
			tIdx1 := 2*y*outputWidth + (2*x + 1)
			tIdx2 := (2*y+1)*outputWidth + 2*x
			tIdx3 := (2*y+1)*outputWidth + (2*x + 1)

			mask0 := outputMask[tIdx0]
			mask1 := outputMask[tIdx1]
			mask2 := outputMask[tIdx2]
			mask3 := outputMask[tIdx3]

			sourceIdx := (y*inputWidth + x) * channelStride

			tIdx0 *= channelStride
			tIdx1 *= channelStride
			tIdx2 *= channelStride
			tIdx3 *= channelStride

			for _, c := range channels.active() {
				sourceColor := inputImage[sourceIdx+int(c)]

				if mask0 == 0 {
					outputImage[tIdx0+int(c)] = sourceColor
				}
				if mask1 == 0 {
					outputImage[tIdx1+int(c)] = sourceColor
				}
				if mask2 == 0 {
					outputImage[tIdx2+int(c)] = sourceColor
				}
				if mask3 == 0 {
					outputImage[tIdx3+int(c)] = sourceColor
				}
			}
		}
	}
}

func validateCompositeBuffers(inputWidth, inputHeight, channelStride int, inputImage, outputImage []float32, outputMask []uint8) error {
	if channelStride < 1 || channelStride > 8 {
		return newError(StatusUnsupportedChannelStride, "mipflood: channel stride must be in 1..8")
	}
	outputWidth := inputWidth * 2
	outputHeight := inputHeight * 2
	if len(inputImage) != inputWidth*inputHeight*channelStride ||
		len(outputImage) != outputWidth*outputHeight*channelStride ||
		len(outputMask) != outputWidth*outputHeight {
		return newError(StatusUnsupportedDimensions, "mipflood: buffer length does not match dimensions")
	}
	return nil
}

// CompositeUp fills the holes (mask==0) of the finer mip with the
// nearest-neighbour upscale of the coarser mip. Dimensions are those of the
// coarser (input) mip.
func CompositeUp(inputWidth, inputHeight, channelStride int, inputImage, outputImage []float32, outputMask []uint8, channelMask uint8, maxThreads uint8) error {
	if err := validateCompositeBuffers(inputWidth, inputHeight, channelStride, inputImage, outputImage, outputMask); err != nil {
		return err
	}
	channels := newChannelSet(channelMask, channelStride)
	runRows(inputWidth, inputHeight, channelStride, maxThreads, func(startRow, endRow int) {
		compositeUpRows(inputWidth, endRow, channelStride, inputImage, outputImage, outputMask, channels, startRow)
	})
	return nil
}

// CompositeUpRows is the single-threaded partial-row variant of CompositeUp;
// row bounds refer to input (coarser mip) rows.
func CompositeUpRows(inputWidth, inputHeight, channelStride int, inputImage, outputImage []float32, outputMask []uint8, channelMask uint8, startRow, endRow int) error {
	if err := validateCompositeBuffers(inputWidth, inputHeight, channelStride, inputImage, outputImage, outputMask); err != nil {
		return err
	}
	if err := validateRowRange(startRow, endRow, inputHeight); err != nil {
		return err
	}
	channels := newChannelSet(channelMask, channelStride)
	compositeUpRows(inputWidth, endRow, channelStride, inputImage, outputImage, outputMask, channels, startRow)
	return nil
}
