// package common contains small, dependency-light types shared across the
// renderer's packages. They are plain structs, not interface-wrapped types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
// Produced either directly by the caller or by the asset-prep pool's decode
// jobs (see package assetprep).
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the texture width in pixels.
	Width uint32
	// Height is the texture height in pixels.
	Height uint32
}

// SamplerStagingData holds sampler configuration pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode
	// for texture coordinates outside [0, 1] in each dimension.
	AddressModeU, AddressModeV, AddressModeW vk.SamplerAddressMode
	// MagFilter and MinFilter specify magnification/minification filtering.
	MagFilter, MinFilter vk.Filter
	// MipmapMode specifies the mipmap level selection filter.
	MipmapMode vk.SamplerMipmapMode
	// MinLod and MaxLod clamp the mip level range.
	MinLod, MaxLod float32
	// CompareOp is the comparison function for comparison (shadow) samplers.
	CompareOp vk.CompareOp
	// MaxAnisotropy is the maximum anisotropy level; 0 disables it.
	MaxAnisotropy float32
}

// ImportedTexture represents raw texture source data awaiting CPU-side
// decode, either embedded bytes or a path on disk.
type ImportedTexture struct {
	// Name identifies this texture (e.g. "diffuse", "normal").
	Name string

	// Path is the file path for on-disk textures (empty for embedded).
	Path string

	// Data contains raw encoded image bytes for embedded textures.
	Data []byte

	// MimeType indicates the source format (e.g. "image/png").
	MimeType string

	// Width and Height are populated after Decode.
	Width int
	Height int

	// SamplerData overrides the default sampler settings used when the
	// decoded texture is uploaded, if non-nil.
	SamplerData *SamplerStagingData
}

// Decode decodes the texture to raw RGBA pixel data, from either the
// embedded Data bytes or the file at Path. Supports PNG and JPEG.
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - uint32: texture width in pixels
//   - uint32: texture height in pixels
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() ([]byte, uint32, uint32, error) {
	if t == nil {
		return nil, 0, 0, fmt.Errorf("texture is nil")
	}

	var img image.Image
	var err error

	switch {
	case len(t.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode embedded image: %w", err)
		}
	case t.Path != "":
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return nil, 0, 0, fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	default:
		return nil, 0, 0, fmt.Errorf("texture has neither data nor path")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	t.Width = width
	t.Height = height

	return rgba.Pix, uint32(width), uint32(height), nil
}

// SliceToBytes reinterprets a slice of any type as a byte slice, for GPU
// buffer uploads. The returned slice shares memory with data - it must not
// outlive or be mutated independently of the source.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if data is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(unsafe.Sizeof(*v)))
}
