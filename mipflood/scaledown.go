package mipflood

import "math"

// renormalize rescales the active channels at pixel base (already strided)
// to a unit vector under the n = 2c-1 encoding. Near-zero vectors are left
// alone.
func renormalize(image []float32, base int, channels *channelSet) {
	var sum float32
	for _, c := range channels.active() {
		component := image[base+int(c)]*2 - 1
		sum += component * component
	}
	if sum < 0.0001 {
		return
	}
	scale := float32(math.Sqrt(float64(sum)))
	for _, c := range channels.active() {
		component := image[base+int(c)]*2 - 1
		image[base+int(c)] = (component/scale + 1) / 2
	}
}

// convertAndScaleDownRows is the initial downscale kernel: 2x2 box filter
// weighted by binarised coverage, normalising the input type to [0,1] floats
// and extracting the half-size binary mask. A nil/empty inputMask reads
// coverage from the last channel of the image.
func convertAndScaleDownRows[I, M scalar](
	outputWidth, endRow, channelStride int,
	inputImage []I,
	inputMask []M,
	outputImage []float32,
	outputMask []uint8,
	coverageThreshold float32,
	convertSRGBToLinear bool,
	isNormalMap bool,
	channels channelSet,
	scaleAlphaUnweighted bool,
	startRow int,
) {
	lastChannelIsMask := len(inputMask) == 0
	inputWidth := outputWidth * 2
	imageTypeFactor := typeFactor[I]()
	maskTypeFactor := typeFactor[M]()

	for y := startRow; y < endRow; y++ {
		for x := 0; x < outputWidth; x++ {
			idx0 := 2*y*inputWidth + 2*x
			idx1 := 2*y*inputWidth + (2*x + 1)
			idx2 := (2*y+1)*inputWidth + 2*x
			idx3 := (2*y+1)*inputWidth + (2*x + 1)

			outputIdx := y*outputWidth + x

			var maskInput0, maskInput1, maskInput2, maskInput3 float32
			if !lastChannelIsMask {
				maskInput0 = float32(inputMask[idx0]) / maskTypeFactor
				maskInput1 = float32(inputMask[idx1]) / maskTypeFactor
				maskInput2 = float32(inputMask[idx2]) / maskTypeFactor
				maskInput3 = float32(inputMask[idx3]) / maskTypeFactor
			}
			// All input accesses after this point are strided.
			idx0 *= channelStride
			idx1 *= channelStride
			idx2 *= channelStride
			idx3 *= channelStride
			// Extract mask from last channel, usually alpha (ignoring the
			// minuscule sRGB difference here).
			if lastChannelIsMask {
				maskInput0 = float32(inputImage[idx0+channelStride-1]) / imageTypeFactor
				maskInput1 = float32(inputImage[idx1+channelStride-1]) / imageTypeFactor
				maskInput2 = float32(inputImage[idx2+channelStride-1]) / imageTypeFactor
				maskInput3 = float32(inputImage[idx3+channelStride-1]) / imageTypeFactor
			}
			var mask0, mask1, mask2, mask3 uint8
			if maskInput0 > coverageThreshold {
				mask0 = 1
			}
			if maskInput1 > coverageThreshold {
				mask1 = 1
			}
			if maskInput2 > coverageThreshold {
				mask2 = 1
			}
			if maskInput3 > coverageThreshold {
				mask3 = 1
			}
			maskSum := mask0 + mask1 + mask2 + mask3

			// Walk all channels (not just the active subset) so inactive and
			// uncovered channels are initialized to 0 for mip export.
			for c := 0; c < channelStride; c++ {
				if maskSum == 0 || !channels.has(c) {
					outputImage[outputIdx*channelStride+c] = 0
					continue
				}
				if c == channelStride-1 && scaleAlphaUnweighted {
					outputImage[outputIdx*channelStride+c] = (maskInput0 + maskInput1 + maskInput2 + maskInput3) / 4
					continue
				}
				var colorSum float32
				if convertSRGBToLinear {
					var color0, color1, color2, color3 float32
					if mask0 != 0 {
						color0 = SRGBToLinear(float32(inputImage[idx0+c]) / imageTypeFactor)
					}
					if mask1 != 0 {
						color1 = SRGBToLinear(float32(inputImage[idx1+c]) / imageTypeFactor)
					}
					if mask2 != 0 {
						color2 = SRGBToLinear(float32(inputImage[idx2+c]) / imageTypeFactor)
					}
					if mask3 != 0 {
						color3 = SRGBToLinear(float32(inputImage[idx3+c]) / imageTypeFactor)
					}
					colorSum = color0 + color1 + color2 + color3
				} else {
					var color0, color1, color2, color3 float32
					if mask0 != 0 {
						color0 = float32(inputImage[idx0+c])
					}
					if mask1 != 0 {
						color1 = float32(inputImage[idx1+c])
					}
					if mask2 != 0 {
						color2 = float32(inputImage[idx2+c])
					}
					if mask3 != 0 {
						color3 = float32(inputImage[idx3+c])
					}
					colorSum = (color0 + color1 + color2 + color3) / imageTypeFactor
				}
				outputImage[outputIdx*channelStride+c] = colorSum / float32(maskSum)
			}
			if maskSum > 0 {
				outputMask[outputIdx] = 1
			} else {
				outputMask[outputIdx] = 0
			}
			if isNormalMap && maskSum > 0 {
				renormalize(outputImage, outputIdx*channelStride, &channels)
			}
		}
	}
}

// scaleDownRows is the subsequent-level downscale kernel: float mip plus
// binary mask in, half-size float mip plus binary mask out. Uncovered input
// pixels are already zero, so the box sum needs no per-sample masking.
func scaleDownRows(
	outputWidth, endRow, channelStride int,
	inputImage []float32,
	inputMask []uint8,
	outputImage []float32,
	outputMask []uint8,
	isNormalMap bool,
	channels channelSet,
	scaleAlphaUnweighted bool,
	startRow int,
) {
	inputWidth := outputWidth * 2

	for y := startRow; y < endRow; y++ {
		for x := 0; x < outputWidth; x++ {
			idx0 := 2*y*inputWidth + 2*x
			idx1 := 2*y*inputWidth + (2*x + 1)
			idx2 := (2*y+1)*inputWidth + 2*x
			idx3 := (2*y+1)*inputWidth + (2*x + 1)

			outputIdx := y*outputWidth + x

			maskSum := inputMask[idx0] + inputMask[idx1] + inputMask[idx2] + inputMask[idx3]

			idx0 *= channelStride
			idx1 *= channelStride
			idx2 *= channelStride
			idx3 *= channelStride

			for c := 0; c < channelStride; c++ {
				if maskSum == 0 || !channels.has(c) {
					outputImage[outputIdx*channelStride+c] = 0
					continue
				}
				if scaleAlphaUnweighted && c == channelStride-1 {
					outputImage[outputIdx*channelStride+c] = (inputImage[idx0+c] +
						inputImage[idx1+c] +
						inputImage[idx2+c] +
						inputImage[idx3+c]) / 4
					continue
				}
				outputImage[outputIdx*channelStride+c] = (inputImage[idx0+c] +
					inputImage[idx1+c] +
					inputImage[idx2+c] +
					inputImage[idx3+c]) / float32(maskSum)
			}
			if maskSum > 0 {
				outputMask[outputIdx] = 1
			} else {
				outputMask[outputIdx] = 0
			}
			if isNormalMap && maskSum > 0 {
				renormalize(outputImage, outputIdx*channelStride, &channels)
			}
		}
	}
}

// scaleDownMasked dispatches convertAndScaleDownRows over the mask's runtime
// type tag.
func scaleDownMasked[I scalar](
	outputWidth, endRow, channelStride int,
	inputImage []I,
	mask *Mask,
	outputImage []float32,
	outputMask []uint8,
	opts Options,
	channels channelSet,
	startRow int,
) {
	if mask == nil {
		convertAndScaleDownRows[I, uint8](outputWidth, endRow, channelStride, inputImage, nil,
			outputImage, outputMask, opts.CoverageThreshold, opts.ConvertSRGB, opts.IsNormalMap,
			channels, opts.ScaleAlphaUnweighted, startRow)
		return
	}
	switch mask.DataType {
	case TypeUint8:
		convertAndScaleDownRows(outputWidth, endRow, channelStride, inputImage, mask.DataU8,
			outputImage, outputMask, opts.CoverageThreshold, opts.ConvertSRGB, opts.IsNormalMap,
			channels, opts.ScaleAlphaUnweighted, startRow)
	case TypeUint16:
		convertAndScaleDownRows(outputWidth, endRow, channelStride, inputImage, mask.DataU16,
			outputImage, outputMask, opts.CoverageThreshold, opts.ConvertSRGB, opts.IsNormalMap,
			channels, opts.ScaleAlphaUnweighted, startRow)
	case TypeFloat32:
		convertAndScaleDownRows(outputWidth, endRow, channelStride, inputImage, mask.DataF32,
			outputImage, outputMask, opts.CoverageThreshold, opts.ConvertSRGB, opts.IsNormalMap,
			channels, opts.ScaleAlphaUnweighted, startRow)
	}
}

func scaleDownDispatch(img *Image, mask *Mask, outputImage []float32, outputMask []uint8, opts Options, startRow, endRow int) {
	channels := newChannelSet(opts.ChannelMask, img.ChannelStride)
	outputWidth := img.Width / 2
	switch img.DataType {
	case TypeUint8:
		scaleDownMasked(outputWidth, endRow, img.ChannelStride, img.DataU8, mask, outputImage, outputMask, opts, channels, startRow)
	case TypeUint16:
		scaleDownMasked(outputWidth, endRow, img.ChannelStride, img.DataU16, mask, outputImage, outputMask, opts, channels, startRow)
	case TypeFloat32:
		scaleDownMasked(outputWidth, endRow, img.ChannelStride, img.DataF32, mask, outputImage, outputMask, opts, channels, startRow)
	}
}

func validateScaleDownBuffers(img *Image, outputImage []float32, outputMask []uint8) error {
	outputWidth := img.Width / 2
	outputHeight := img.Height / 2
	if len(outputImage) != outputWidth*outputHeight*img.ChannelStride {
		return newError(StatusUnsupportedDimensions, "mipflood: output image buffer length does not match dimensions")
	}
	if len(outputMask) != outputWidth*outputHeight {
		return newError(StatusUnsupportedDimensions, "mipflood: output mask buffer length does not match dimensions")
	}
	return nil
}

// ConvertAndScaleDownWeighted performs the initial coverage-weighted 2x2
// downscale from a typed image (optionally with a typed coverage mask, nil
// meaning "last channel is the mask") into a half-size float image and
// half-size binary mask.
func ConvertAndScaleDownWeighted(img *Image, mask *Mask, outputImage []float32, outputMask []uint8, opts Options) error {
	if err := validateImage(img); err != nil {
		return err
	}
	if err := validateMask(mask, img.Width, img.Height); err != nil {
		return err
	}
	if err := validateScaleDownBuffers(img, outputImage, outputMask); err != nil {
		return err
	}
	outputHeight := img.Height / 2
	runRows(img.Width/2, outputHeight, img.ChannelStride, opts.MaxThreads, func(startRow, endRow int) {
		scaleDownDispatch(img, mask, outputImage, outputMask, opts, startRow, endRow)
	})
	return nil
}

// ConvertAndScaleDownWeightedRows is the single-threaded partial-row variant
// of ConvertAndScaleDownWeighted; row bounds refer to output rows.
func ConvertAndScaleDownWeightedRows(img *Image, mask *Mask, outputImage []float32, outputMask []uint8, opts Options, startRow, endRow int) error {
	if err := validateImage(img); err != nil {
		return err
	}
	if err := validateMask(mask, img.Width, img.Height); err != nil {
		return err
	}
	if err := validateScaleDownBuffers(img, outputImage, outputMask); err != nil {
		return err
	}
	if err := validateRowRange(startRow, endRow, img.Height/2); err != nil {
		return err
	}
	scaleDownDispatch(img, mask, outputImage, outputMask, opts, startRow, endRow)
	return nil
}

// ScaleDownWeighted performs a subsequent-level coverage-weighted 2x2
// downscale between float mips with binary masks.
func ScaleDownWeighted(outputWidth, outputHeight, channelStride int, inputImage []float32, inputMask []uint8, outputImage []float32, outputMask []uint8, opts Options) error {
	if err := validateFloatPair(outputWidth, outputHeight, channelStride, inputImage, inputMask, outputImage, outputMask); err != nil {
		return err
	}
	channels := newChannelSet(opts.ChannelMask, channelStride)
	runRows(outputWidth, outputHeight, channelStride, opts.MaxThreads, func(startRow, endRow int) {
		scaleDownRows(outputWidth, endRow, channelStride, inputImage, inputMask, outputImage, outputMask,
			opts.IsNormalMap, channels, opts.ScaleAlphaUnweighted, startRow)
	})
	return nil
}

// ScaleDownWeightedRows is the single-threaded partial-row variant of
// ScaleDownWeighted; row bounds refer to output rows.
func ScaleDownWeightedRows(outputWidth, outputHeight, channelStride int, inputImage []float32, inputMask []uint8, outputImage []float32, outputMask []uint8, opts Options, startRow, endRow int) error {
	if err := validateFloatPair(outputWidth, outputHeight, channelStride, inputImage, inputMask, outputImage, outputMask); err != nil {
		return err
	}
	if err := validateRowRange(startRow, endRow, outputHeight); err != nil {
		return err
	}
	channels := newChannelSet(opts.ChannelMask, channelStride)
	scaleDownRows(outputWidth, endRow, channelStride, inputImage, inputMask, outputImage, outputMask,
		opts.IsNormalMap, channels, opts.ScaleAlphaUnweighted, startRow)
	return nil
}

func validateFloatPair(outputWidth, outputHeight, channelStride int, inputImage []float32, inputMask []uint8, outputImage []float32, outputMask []uint8) error {
	if channelStride < 1 || channelStride > 8 {
		return newError(StatusUnsupportedChannelStride, "mipflood: channel stride must be in 1..8")
	}
	inputWidth := outputWidth * 2
	inputHeight := outputHeight * 2
	if len(inputImage) != inputWidth*inputHeight*channelStride ||
		len(inputMask) != inputWidth*inputHeight ||
		len(outputImage) != outputWidth*outputHeight*channelStride ||
		len(outputMask) != outputWidth*outputHeight {
		return newError(StatusUnsupportedDimensions, "mipflood: buffer length does not match dimensions")
	}
	return nil
}
