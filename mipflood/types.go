package mipflood

import "math/bits"

// DataType is a component storage type equivalent to upstream LMF_DATA_TYPE.
type DataType uint8

const (
	TypeUint8   DataType = 0
	TypeUint16  DataType = 1
	TypeFloat32 DataType = 2
)

// scalar is the set of component types the kernels are instantiated for.
type scalar interface {
	~uint8 | ~uint16 | ~float32
}

// typeFactor returns the value a fully covered component normalises against:
// the unsigned maximum for integer types, 1.0 for floats.
func typeFactor[T scalar]() float32 {
	var z T
	switch any(z).(type) {
	case uint8:
		return 255
	case uint16:
		return 65535
	default:
		return 1
	}
}

// roundBias is added before truncating a scaled float into an integer type,
// 0 for float targets.
func roundBias[T scalar]() float32 {
	var z T
	if _, ok := any(z).(float32); ok {
		return 0
	}
	return 0.5
}

// Image is a tightly-packed channel-interleaved 2D pixel buffer. Exactly one
// of the Data slices must be populated, matching DataType, with
// Width*Height*ChannelStride elements.
type Image struct {
	Width         int
	Height        int
	ChannelStride int
	DataType      DataType

	DataU8  []uint8
	DataU16 []uint16
	DataF32 []float32
}

// Mask is a Width*Height coverage buffer. A nil *Mask passed to the public
// entry points means "the image's last channel is the coverage mask".
type Mask struct {
	DataType DataType

	DataU8  []uint8
	DataU16 []uint16
	DataF32 []float32
}

// Options collects the parameters shared by the public entry points.
type Options struct {
	// CoverageThreshold binarises the normalised mask: covered iff
	// value/typeMax > CoverageThreshold.
	CoverageThreshold float32

	// ConvertSRGB marks the image as sRGB encoded: decoded to linear before
	// averaging, re-encoded on the final write-back.
	ConvertSRGB bool

	// IsNormalMap renormalises the active channels of each downscaled pixel
	// as a unit vector decoded via n = 2c-1.
	IsNormalMap bool

	// ChannelMask selects the active channels; 0 means all channels up to
	// the stride.
	ChannelMask uint8

	// ScaleAlphaUnweighted stores an arithmetic (not coverage-weighted) mean
	// in the last channel. At the first level this is the mean of the four
	// normalised coverage-mask values (the alpha samples when no separate
	// mask is given); at later levels it is the mean of the four input alphas.
	ScaleAlphaUnweighted bool

	// MaxThreads caps kernel parallelism; 0 uses half the hardware threads.
	MaxThreads uint8
}

// DefaultOptions returns the upstream defaults.
func DefaultOptions() Options {
	return Options{CoverageThreshold: 0.999}
}

// MipCount returns the number of generated mip levels for a WxH image,
// floor(log2(min(W, H))). Level 0 of the generated pyramid is half size.
func MipCount(width, height int) int {
	m := width
	if height < m {
		m = height
	}
	if m <= 1 {
		return 0
	}
	return bits.Len(uint(m)) - 1
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

func validDataType(t DataType) bool {
	return t == TypeUint8 || t == TypeUint16 || t == TypeFloat32
}

// bufferLen returns the populated backing slice length for the tag, or -1 on
// an unknown tag.
func (img *Image) bufferLen() int {
	switch img.DataType {
	case TypeUint8:
		return len(img.DataU8)
	case TypeUint16:
		return len(img.DataU16)
	case TypeFloat32:
		return len(img.DataF32)
	default:
		return -1
	}
}

func (m *Mask) bufferLen() int {
	switch m.DataType {
	case TypeUint8:
		return len(m.DataU8)
	case TypeUint16:
		return len(m.DataU16)
	case TypeFloat32:
		return len(m.DataF32)
	default:
		return -1
	}
}

// validateImage checks dimensions, stride, data type tag and buffer length.
// Nothing is allocated or mutated before this passes.
func validateImage(img *Image) error {
	if img == nil {
		return newError(StatusUnknown, "mipflood: nil image")
	}
	if !validDataType(img.DataType) {
		return newError(StatusUnsupportedDataType, "mipflood: unknown image data type")
	}
	if img.ChannelStride < 1 || img.ChannelStride > 8 {
		return newError(StatusUnsupportedChannelStride, "mipflood: channel stride must be in 1..8")
	}
	if img.Width < 2 || img.Height < 2 || !isPowerOfTwo(img.Width) || !isPowerOfTwo(img.Height) {
		return newError(StatusUnsupportedDimensions, "mipflood: dimensions must be powers of two >= 2")
	}
	if img.bufferLen() != img.Width*img.Height*img.ChannelStride {
		return newError(StatusUnsupportedDimensions, "mipflood: image buffer length does not match dimensions")
	}
	return nil
}

// validateMask checks the optional coverage mask against the image
// dimensions. A nil mask is valid (last channel acts as mask).
func validateMask(mask *Mask, width, height int) error {
	if mask == nil {
		return nil
	}
	if !validDataType(mask.DataType) {
		return newError(StatusUnsupportedDataType, "mipflood: unknown mask data type")
	}
	if mask.bufferLen() != width*height {
		return newError(StatusUnsupportedDimensions, "mipflood: mask buffer length does not match dimensions")
	}
	return nil
}

func validateRowRange(startRow, endRow, height int) error {
	if startRow < 0 || startRow >= endRow || endRow > height {
		return newError(StatusStartRowOutOfBounds, "mipflood: invalid row range")
	}
	return nil
}
