package texture

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
)

func TestMipLevelsForPowerOfTwo(t *testing.T) {
	cases := []struct{ w, h, want uint32 }{
		{1, 1, 1},
		{2, 2, 2},
		{256, 256, 9},
		{512, 256, 10},
	}
	for _, c := range cases {
		if got := mipLevelsFor(c.w, c.h); got != c.want {
			t.Errorf("mipLevelsFor(%d,%d) = %d, want %d", c.w, c.h, got, c.want)
		}
	}
}

func TestFormatForChannelsGrayscaleVsRGBA(t *testing.T) {
	if got := formatForChannels(1); got != vk.FormatR8Unorm {
		t.Errorf("formatForChannels(1) = %v, want R8Unorm", got)
	}
	if got := formatForChannels(4); got != vk.FormatR8g8b8a8Unorm {
		t.Errorf("formatForChannels(4) = %v, want R8g8b8a8Unorm", got)
	}
}

func TestToVkWrapMapsEveryMode(t *testing.T) {
	cases := map[backend.WrapMode]vk.SamplerAddressMode{
		backend.WrapRepeat:         vk.SamplerAddressModeRepeat,
		backend.WrapClampToEdge:    vk.SamplerAddressModeClampToEdge,
		backend.WrapMirroredRepeat: vk.SamplerAddressModeMirroredRepeat,
	}
	for in, want := range cases {
		if got := toVkWrap(in); got != want {
			t.Errorf("toVkWrap(%v) = %v, want %v", in, got, want)
		}
	}
}

// S4: a cube-map description must resolve to 6 array layers (one per
// face), while a plain 2D description resolves to 1 — the branch
// Create/createImageView/upload all key off when building a cube map.
func TestLayersForTypeCubeVsPlain(t *testing.T) {
	if got := layersForType(backend.TextureTypeCube); got != 6 {
		t.Errorf("layersForType(Cube) = %d, want 6", got)
	}
	if got := layersForType(backend.TextureType2D); got != 1 {
		t.Errorf("layersForType(2D) = %d, want 1", got)
	}
}

// update_texture must reject any description whose dimensions, format,
// or channel count differ from the existing texture (§4.7) before ever
// touching the device, so these cases never reach a real vk call.
func TestUpdateSamplerRejectsDescriptionMismatch(t *testing.T) {
	tex := &Texture{Width: 64, Height: 64, Format: vk.FormatR8g8b8a8Unorm}
	tc := &TransferContext{}

	cases := []backend.TextureDescription{
		{Width: 128, Height: 64, Channels: 4},
		{Width: 64, Height: 32, Channels: 4},
		{Width: 64, Height: 64, Channels: 1}, // different format (R8Unorm vs R8g8b8a8Unorm)
	}
	for _, desc := range cases {
		if err := UpdateSampler(tc, tex, desc); !errors.Is(err, ErrDescriptionMismatch) {
			t.Errorf("UpdateSampler(%+v) error = %v, want ErrDescriptionMismatch", desc, err)
		}
	}
}

func TestToVkFilterMapsBothModes(t *testing.T) {
	if got := toVkFilter(backend.FilterLinear); got != vk.FilterLinear {
		t.Errorf("toVkFilter(Linear) = %v, want Linear", got)
	}
	if got := toVkFilter(backend.FilterNearest); got != vk.FilterNearest {
		t.Errorf("toVkFilter(Nearest) = %v, want Nearest", got)
	}
}
