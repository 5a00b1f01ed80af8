package mipflood_test

import (
	"testing"

	"github.com/Level3Manatee/libmipflooding/mipflood"
)

func TestConvertToType_Uint8Rounding(t *testing.T) {
	in := []float32{0, 0.25, 0.5, 1}
	img := &mipflood.Image{
		Width: 2, Height: 2, ChannelStride: 1, DataType: mipflood.TypeUint8,
		DataU8: make([]uint8, 4),
	}

	if err := mipflood.ConvertToType(in, img, false, 0, 1); err != nil {
		t.Fatalf("ConvertToType: %v", err)
	}

	want := []uint8{0, 64, 128, 255}
	for i := range want {
		if img.DataU8[i] != want[i] {
			t.Fatalf("pixel %d: got %d want %d", i, img.DataU8[i], want[i])
		}
	}
}

func TestConvertToType_Uint16(t *testing.T) {
	in := []float32{0, 0.5, 1, 0.25}
	img := &mipflood.Image{
		Width: 2, Height: 2, ChannelStride: 1, DataType: mipflood.TypeUint16,
		DataU16: make([]uint16, 4),
	}

	if err := mipflood.ConvertToType(in, img, false, 0, 1); err != nil {
		t.Fatalf("ConvertToType: %v", err)
	}

	want := []uint16{0, 32768, 65535, 16384}
	for i := range want {
		if img.DataU16[i] != want[i] {
			t.Fatalf("pixel %d: got %d want %d", i, img.DataU16[i], want[i])
		}
	}
}

func TestConvertToType_Float32PassThrough(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3, 0.4}
	img := &mipflood.Image{
		Width: 2, Height: 2, ChannelStride: 1, DataType: mipflood.TypeFloat32,
		DataF32: make([]float32, 4),
	}

	if err := mipflood.ConvertToType(in, img, false, 0, 1); err != nil {
		t.Fatalf("ConvertToType: %v", err)
	}
	for i := range in {
		if img.DataF32[i] != in[i] {
			t.Fatalf("pixel %d: got %g want %g", i, img.DataF32[i], in[i])
		}
	}
}

func TestConvertToType_SRGBEncode(t *testing.T) {
	in := []float32{0.5, 0.5, 0.5, 0.5}
	img := &mipflood.Image{
		Width: 2, Height: 2, ChannelStride: 1, DataType: mipflood.TypeUint8,
		DataU8: make([]uint8, 4),
	}

	if err := mipflood.ConvertToType(in, img, true, 0, 1); err != nil {
		t.Fatalf("ConvertToType: %v", err)
	}

	want := uint8(mipflood.LinearToSRGB(0.5)*255 + 0.5)
	for i := range img.DataU8 {
		if img.DataU8[i] != want {
			t.Fatalf("pixel %d: got %d want %d", i, img.DataU8[i], want)
		}
	}
}

func TestConvertToType_InactiveChannelsUntouched(t *testing.T) {
	in := []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	img := &mipflood.Image{
		Width: 2, Height: 2, ChannelStride: 2, DataType: mipflood.TypeUint8,
		DataU8: []uint8{9, 99, 9, 99, 9, 99, 9, 99},
	}

	if err := mipflood.ConvertToType(in, img, false, 0b01, 1); err != nil {
		t.Fatalf("ConvertToType: %v", err)
	}
	for i := 0; i < 4; i++ {
		if img.DataU8[i*2] != 128 {
			t.Fatalf("active channel pixel %d: got %d want 128", i, img.DataU8[i*2])
		}
		if img.DataU8[i*2+1] != 99 {
			t.Fatalf("inactive channel pixel %d: got %d want 99", i, img.DataU8[i*2+1])
		}
	}
}

func TestConvertToTypeRows_RowRange(t *testing.T) {
	in := []float32{1, 1, 1, 1}
	img := &mipflood.Image{
		Width: 2, Height: 2, ChannelStride: 1, DataType: mipflood.TypeUint8,
		DataU8: make([]uint8, 4),
	}

	if err := mipflood.ConvertToTypeRows(in, img, false, 0, 1, 2); err != nil {
		t.Fatalf("ConvertToTypeRows: %v", err)
	}
	want := []uint8{0, 0, 255, 255}
	for i := range want {
		if img.DataU8[i] != want[i] {
			t.Fatalf("pixel %d: got %d want %d", i, img.DataU8[i], want[i])
		}
	}

	if err := mipflood.ConvertToTypeRows(in, img, false, 0, 2, 2); err == nil {
		t.Fatalf("ConvertToTypeRows(empty range): got nil error, want error")
	} else if got := mipflood.StatusOf(err); got != mipflood.StatusStartRowOutOfBounds {
		t.Fatalf("StatusOf: got %v want %v", got, mipflood.StatusStartRowOutOfBounds)
	}
}

// The flood-back quantises hole pixels with round-half-up and leaves the
// covered pixel untouched.
func TestFinalCompositeAndConvert_QuantisesHoles(t *testing.T) {
	mip := []float32{0.5, 0.5, 0.5, 0.5} // 2x2 mip for a 4x4 image
	data := make([]uint8, 4*4)
	maskData := make([]uint8, 4*4)
	for i := range data {
		data[i] = 200
	}
	maskData[5] = 255

	img := &mipflood.Image{
		Width: 4, Height: 4, ChannelStride: 1, DataType: mipflood.TypeUint8,
		DataU8: data,
	}
	mask := &mipflood.Mask{DataType: mipflood.TypeUint8, DataU8: maskData}

	if err := mipflood.FinalCompositeAndConvert(mip, img, mask, mipflood.DefaultOptions()); err != nil {
		t.Fatalf("FinalCompositeAndConvert: %v", err)
	}

	for i := range data {
		want := uint8(128)
		if i == 5 {
			want = 200
		}
		if data[i] != want {
			t.Fatalf("pixel %d: got %d want %d", i, data[i], want)
		}
	}
}
