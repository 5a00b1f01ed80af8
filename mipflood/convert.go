package mipflood

// convertToTypeRows quantises a [0,1] float image into the target type over
// the active channels; untouched channels keep their previous output values.
func convertToTypeRows[O scalar](
	width, endRow, channelStride int,
	imageIn []float32,
	imageOut []O,
	convertSRGB bool,
	channels channelSet,
	startRow int,
) {
	imageTypeFactor := typeFactor[O]()
	bias := roundBias[O]()

	for y := startRow; y < endRow; y++ {
		for x := 0; x < width; x++ {
			idx := (y*width + x) * channelStride
			for _, c := range channels.active() {
				v := imageIn[idx+int(c)]
				if convertSRGB {
					v = LinearToSRGB(v)
				}
				imageOut[idx+int(c)] = O(v*imageTypeFactor + bias)
			}
		}
	}
}

// finalCompositeRows floods mip level 1 back into the original image: where
// the binarised coverage is 0, each active channel is replaced with the
// quantised (optionally sRGB-encoded) mip color; covered pixels keep their
// original values byte-exact. Dimensions are those of the mip (half the
// image). A nil/empty mask reads coverage from the last channel of the
// output image.
func finalCompositeRows[O, M scalar](
	inputWidth, endRow, channelStride int,
	inputImage []float32,
	outputImage []O,
	mask []M,
	coverageThreshold float32,
	convertLinearToSRGB bool,
	channels channelSet,
	startRow int,
) {
	inferMask := len(mask) == 0
	outputWidth := inputWidth * 2
	imageTypeFactor := typeFactor[O]()
	maskTypeFactor := typeFactor[M]()
	bias := roundBias[O]()

	for y := startRow; y < endRow; y++ {
		for x := 0; x < inputWidth; x++ {
			outIdx0 := 2*y*outputWidth + 2*x
			outIdx1 := 2*y*outputWidth + (2*x + 1)
			outIdx2 := (2*y+1)*outputWidth + 2*x
			outIdx3 := (2*y+1)*outputWidth + (2*x + 1)

			var maskInput0, maskInput1, maskInput2, maskInput3 float32
			if !inferMask {
				maskInput0 = float32(mask[outIdx0]) / maskTypeFactor
				maskInput1 = float32(mask[outIdx1]) / maskTypeFactor
				maskInput2 = float32(mask[outIdx2]) / maskTypeFactor
				maskInput3 = float32(mask[outIdx3]) / maskTypeFactor
			}
			// All output accesses after this point are strided.
			outIdx0 *= channelStride
			outIdx1 *= channelStride
			outIdx2 *= channelStride
			outIdx3 *= channelStride
			if inferMask {
				maskInput0 = float32(outputImage[outIdx0+channelStride-1]) / imageTypeFactor
				maskInput1 = float32(outputImage[outIdx1+channelStride-1]) / imageTypeFactor
				maskInput2 = float32(outputImage[outIdx2+channelStride-1]) / imageTypeFactor
				maskInput3 = float32(outputImage[outIdx3+channelStride-1]) / imageTypeFactor
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

			inputIdx := (y*inputWidth + x) * channelStride

			for _, c := range channels.active() {
				v := inputImage[inputIdx+int(c)]
				if convertLinearToSRGB {
					v = LinearToSRGB(v)
				}
				inputColor := O(v*imageTypeFactor + bias)

				if mask0 == 0 {
					outputImage[outIdx0+int(c)] = inputColor
				}
				if mask1 == 0 {
					outputImage[outIdx1+int(c)] = inputColor
				}
				if mask2 == 0 {
					outputImage[outIdx2+int(c)] = inputColor
				}
				if mask3 == 0 {
					outputImage[outIdx3+int(c)] = inputColor
				}
			}
		}
	}
}

// finalCompositeMasked dispatches finalCompositeRows over the mask's runtime
// type tag.
func finalCompositeMasked[O scalar](
	inputWidth, endRow, channelStride int,
	inputImage []float32,
	outputImage []O,
	mask *Mask,
	opts Options,
	channels channelSet,
	startRow int,
) {
	if mask == nil {
		finalCompositeRows[O, uint8](inputWidth, endRow, channelStride, inputImage, outputImage, nil,
			opts.CoverageThreshold, opts.ConvertSRGB, channels, startRow)
		return
	}
	switch mask.DataType {
	case TypeUint8:
		finalCompositeRows(inputWidth, endRow, channelStride, inputImage, outputImage, mask.DataU8,
			opts.CoverageThreshold, opts.ConvertSRGB, channels, startRow)
	case TypeUint16:
		finalCompositeRows(inputWidth, endRow, channelStride, inputImage, outputImage, mask.DataU16,
			opts.CoverageThreshold, opts.ConvertSRGB, channels, startRow)
	case TypeFloat32:
		finalCompositeRows(inputWidth, endRow, channelStride, inputImage, outputImage, mask.DataF32,
			opts.CoverageThreshold, opts.ConvertSRGB, channels, startRow)
	}
}

func finalCompositeDispatch(inputImage []float32, img *Image, mask *Mask, opts Options, startRow, endRow int) {
	channels := newChannelSet(opts.ChannelMask, img.ChannelStride)
	inputWidth := img.Width / 2
	switch img.DataType {
	case TypeUint8:
		finalCompositeMasked(inputWidth, endRow, img.ChannelStride, inputImage, img.DataU8, mask, opts, channels, startRow)
	case TypeUint16:
		finalCompositeMasked(inputWidth, endRow, img.ChannelStride, inputImage, img.DataU16, mask, opts, channels, startRow)
	case TypeFloat32:
		finalCompositeMasked(inputWidth, endRow, img.ChannelStride, inputImage, img.DataF32, mask, opts, channels, startRow)
	}
}

func validateFinalComposite(inputImage []float32, img *Image, mask *Mask) error {
	if err := validateImage(img); err != nil {
		return err
	}
	if err := validateMask(mask, img.Width, img.Height); err != nil {
		return err
	}
	if len(inputImage) != (img.Width/2)*(img.Height/2)*img.ChannelStride {
		return newError(StatusUnsupportedDimensions, "mipflood: mip buffer length does not match dimensions")
	}
	return nil
}

// FinalCompositeAndConvert floods the level-0 pyramid mip back into the
// caller's typed image through the binarised coverage mask (nil mask meaning
// "last channel is the mask").
func FinalCompositeAndConvert(inputImage []float32, img *Image, mask *Mask, opts Options) error {
	if err := validateFinalComposite(inputImage, img, mask); err != nil {
		return err
	}
	inputHeight := img.Height / 2
	runRows(img.Width/2, inputHeight, img.ChannelStride, opts.MaxThreads, func(startRow, endRow int) {
		finalCompositeDispatch(inputImage, img, mask, opts, startRow, endRow)
	})
	return nil
}

// FinalCompositeAndConvertRows is the single-threaded partial-row variant of
// FinalCompositeAndConvert; row bounds refer to mip (half-image) rows.
func FinalCompositeAndConvertRows(inputImage []float32, img *Image, mask *Mask, opts Options, startRow, endRow int) error {
	if err := validateFinalComposite(inputImage, img, mask); err != nil {
		return err
	}
	if err := validateRowRange(startRow, endRow, img.Height/2); err != nil {
		return err
	}
	finalCompositeDispatch(inputImage, img, mask, opts, startRow, endRow)
	return nil
}

func convertDispatch(imageIn []float32, img *Image, convertSRGB bool, channels channelSet, startRow, endRow int) {
	switch img.DataType {
	case TypeUint8:
		convertToTypeRows(img.Width, endRow, img.ChannelStride, imageIn, img.DataU8, convertSRGB, channels, startRow)
	case TypeUint16:
		convertToTypeRows(img.Width, endRow, img.ChannelStride, imageIn, img.DataU16, convertSRGB, channels, startRow)
	case TypeFloat32:
		convertToTypeRows(img.Width, endRow, img.ChannelStride, imageIn, img.DataF32, convertSRGB, channels, startRow)
	}
}

func validateConvert(imageIn []float32, img *Image) error {
	if img == nil {
		return newError(StatusUnknown, "mipflood: nil image")
	}
	if !validDataType(img.DataType) {
		return newError(StatusUnsupportedDataType, "mipflood: unknown image data type")
	}
	if img.ChannelStride < 1 || img.ChannelStride > 8 {
		return newError(StatusUnsupportedChannelStride, "mipflood: channel stride must be in 1..8")
	}
	want := img.Width * img.Height * img.ChannelStride
	if len(imageIn) != want || img.bufferLen() != want {
		return newError(StatusUnsupportedDimensions, "mipflood: buffer length does not match dimensions")
	}
	return nil
}

// ConvertToType quantises a [0,1] float image into the target image's type
// over the active channels, optionally encoding to sRGB first. Inactive
// channels of the output are not modified. Unlike the pipeline entry points
// it accepts any dimensions.
func ConvertToType(imageIn []float32, img *Image, convertSRGB bool, channelMask uint8, maxThreads uint8) error {
	if err := validateConvert(imageIn, img); err != nil {
		return err
	}
	channels := newChannelSet(channelMask, img.ChannelStride)
	runRows(img.Width, img.Height, img.ChannelStride, maxThreads, func(startRow, endRow int) {
		convertDispatch(imageIn, img, convertSRGB, channels, startRow, endRow)
	})
	return nil
}

// ConvertToTypeRows is the single-threaded partial-row variant of
// ConvertToType.
func ConvertToTypeRows(imageIn []float32, img *Image, convertSRGB bool, channelMask uint8, startRow, endRow int) error {
	if err := validateConvert(imageIn, img); err != nil {
		return err
	}
	if err := validateRowRange(startRow, endRow, img.Height); err != nil {
		return err
	}
	channels := newChannelSet(channelMask, img.ChannelStride)
	convertDispatch(imageIn, img, convertSRGB, channels, startRow, endRow)
	return nil
}
