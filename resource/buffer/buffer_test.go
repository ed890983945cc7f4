package buffer

import (
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
)

func TestToVkUsageMapsAllBits(t *testing.T) {
	usage := backend.BufferUsageVertex | backend.BufferUsageIndex | backend.BufferUsageUniform |
		backend.BufferUsageIndirect | backend.BufferUsageTransferSrc | backend.BufferUsageTransferDst
	flags := toVkUsage(usage)

	want := vk.BufferUsageVertexBufferBit | vk.BufferUsageIndexBufferBit | vk.BufferUsageUniformBufferBit |
		vk.BufferUsageIndirectBufferBit | vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit
	if flags != want {
		t.Errorf("toVkUsage(%v) = %v, want %v", usage, flags, want)
	}
}

func TestToVkMemoryPropertiesMapsAllBits(t *testing.T) {
	props := backend.MemoryPropertyDeviceLocal | backend.MemoryPropertyHostVisible | backend.MemoryPropertyHostCoherent
	flags := toVkMemoryProperties(props)

	want := vk.MemoryPropertyDeviceLocalBit | vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	if flags != want {
		t.Errorf("toVkMemoryProperties(%v) = %v, want %v", props, flags, want)
	}
}

func TestWriteAtRejectsUnmappedBuffer(t *testing.T) {
	b := &Buffer{Size: 64}
	if err := b.WriteAt(0, []byte{1, 2, 3}); err == nil {
		t.Error("expected error writing to a buffer with no mapped memory")
	}
}

func TestWriteAtRejectsOutOfRangeWrite(t *testing.T) {
	backing := make([]byte, 16)
	b := &Buffer{Size: 16, mappedPtr: unsafe.Pointer(&backing[0])}
	if err := b.WriteAt(10, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestWriteAtCopiesIntoMappedRegion(t *testing.T) {
	backing := make([]byte, 16)
	b := &Buffer{Size: 16, mappedPtr: unsafe.Pointer(&backing[0])}
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := b.WriteAt(4, payload); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}
	for i, want := range payload {
		if backing[4+i] != want {
			t.Errorf("backing[%d] = %#x, want %#x", 4+i, backing[4+i], want)
		}
	}
}
