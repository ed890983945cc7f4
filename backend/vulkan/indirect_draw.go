package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
)

// AllocIndirectDraws bump-allocates room for count indirect draw
// commands in this frame's ring buffer (C11), returning the base draw
// index a caller passes to WriteIndirectDrawCommands and
// DrawIndexedIndirect. Not part of backend.Backend: indirect batching is
// an opt-in fast path callers reach through the concrete *vulkan.Backend
// rather than the portable interface, since C3-C10's Draw/DrawIndexed
// already cover the non-batched path every backend must support.
func (b *Backend) AllocIndirectDraws(count uint32) (baseDraw uint32, ok bool) {
	return b.indirectRing.Alloc(count)
}

// WriteIndirectDrawCommands copies cmds into the ring's active buffer
// starting at baseDraw, as returned by a prior AllocIndirectDraws call.
func (b *Backend) WriteIndirectDrawCommands(baseDraw uint32, cmds []backend.IndirectDrawCommand) error {
	return b.indirectRing.WriteCommands(baseDraw, cmds)
}

// FlushIndirectDraws flushes the ring's active buffer for [base, base+count),
// a no-op unless the ring's chosen memory tier requires a manual flush.
func (b *Backend) FlushIndirectDraws(base, count uint32) error {
	return b.indirectRing.FlushRange(base, count)
}

// RemainingIndirectDraws reports the unused tail capacity, in draw-command
// units, of this frame's ring buffer.
func (b *Backend) RemainingIndirectDraws() uint32 {
	return b.indirectRing.Remaining()
}

// DrawIndexedIndirect issues a single vkCmdDrawIndexedIndirect against the
// current frame's ring buffer, drawing drawCount commands starting at
// baseDraw (both previously written via AllocIndirectDraws/
// WriteIndirectDrawCommands and flushed via FlushIndirectDraws).
func (b *Backend) DrawIndexedIndirect(baseDraw, drawCount uint32) error {
	if drawCount == 0 {
		return nil
	}
	cmd := b.commandBuffers[b.currentImageIndex]
	offset := vk.DeviceSize(baseDraw) * vk.DeviceSize(indirectCommandSize)
	vk.CmdDrawIndexedIndirect(cmd, b.indirectRing.GetCurrent(), offset, drawCount, uint32(indirectCommandSize))
	return nil
}

// indirectCommandSize mirrors indirect.commandSize (unexported there):
// sizeof(VkDrawIndexedIndirectCommand), 5 x uint32.
const indirectCommandSize = 20
