package mipflood

import "math"

// SRGBToLinear decodes an sRGB-encoded component in [0,1] to linear
// (IEC 61966-2-1).
func SRGBToLinear(s float32) float32 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return float32(math.Pow(float64(s+0.055)/1.055, 2.4))
}

// LinearToSRGB encodes a linear component in [0,1] to sRGB
// (IEC 61966-2-1).
func LinearToSRGB(l float32) float32 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*float32(math.Pow(float64(l), 1.0/2.4)) - 0.055
}

func convertLinearToSRGBRows(width, endRow, channelStride int, image []float32, channels channelSet, startRow int) {
	for y := startRow; y < endRow; y++ {
		for x := 0; x < width; x++ {
			idx := (y*width + x) * channelStride
			for _, c := range channels.active() {
				image[idx+int(c)] = LinearToSRGB(image[idx+int(c)])
			}
		}
	}
}

// ConvertLinearToSRGBRows encodes the active channels of a float image to
// sRGB in place, over rows [startRow, endRow).
func ConvertLinearToSRGBRows(width, height, channelStride int, image []float32, channelMask uint8, startRow, endRow int) error {
	if channelStride < 1 || channelStride > 8 {
		return newError(StatusUnsupportedChannelStride, "mipflood: channel stride must be in 1..8")
	}
	if len(image) != width*height*channelStride {
		return newError(StatusUnsupportedDimensions, "mipflood: image buffer length does not match dimensions")
	}
	if err := validateRowRange(startRow, endRow, height); err != nil {
		return err
	}
	channels := newChannelSet(channelMask, channelStride)
	convertLinearToSRGBRows(width, endRow, channelStride, image, channels, startRow)
	return nil
}

// ConvertLinearToSRGB encodes the active channels of a float image to sRGB
// in place.
func ConvertLinearToSRGB(width, height, channelStride int, image []float32, channelMask uint8, maxThreads uint8) error {
	if channelStride < 1 || channelStride > 8 {
		return newError(StatusUnsupportedChannelStride, "mipflood: channel stride must be in 1..8")
	}
	if len(image) != width*height*channelStride {
		return newError(StatusUnsupportedDimensions, "mipflood: image buffer length does not match dimensions")
	}
	channels := newChannelSet(channelMask, channelStride)
	runRows(width, height, channelStride, maxThreads, func(startRow, endRow int) {
		convertLinearToSRGBRows(width, endRow, channelStride, image, channels, startRow)
	})
	return nil
}
