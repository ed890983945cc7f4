package renderpass

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
)

// P4 - chaining invariant: adjacent passes' color finalLayout/initialLayout match.
func TestColorAttachmentChainingInvariant(t *testing.T) {
	a := Config{Name: "A", NextName: "B", Domain: backend.DomainWorld, ClearFlags: ClearColorBuffer}
	b := Config{Name: "B", PrevName: "A", Domain: backend.DomainUI}

	attachA := colorAttachment(a, vk.FormatB8g8r8a8Srgb)
	attachB := colorAttachment(b, vk.FormatB8g8r8a8Srgb)

	if attachA.FinalLayout != attachB.InitialLayout {
		t.Errorf("A.FinalLayout = %v, B.InitialLayout = %v, want equal", attachA.FinalLayout, attachB.InitialLayout)
	}
}

func TestTerminalPassEndsAtPresentSrc(t *testing.T) {
	terminal := Config{Name: "UI", PrevName: "World"}
	attach := colorAttachment(terminal, vk.FormatB8g8r8a8Srgb)
	if attach.FinalLayout != vk.ImageLayoutPresentSrc {
		t.Errorf("FinalLayout = %v, want PresentSrc", attach.FinalLayout)
	}
}

func TestEffectiveAreaClampsToTargetAndMinimumOne(t *testing.T) {
	area := effectiveArea(Rect{Width: 0, Height: 0}, 800, 600)
	if area.Width != 800 || area.Height != 600 {
		t.Errorf("area = %+v, want full target 800x600", area)
	}

	tiny := effectiveArea(Rect{Width: -5, Height: -5}, 0, 0)
	if tiny.Width < 1 || tiny.Height < 1 {
		t.Errorf("area = %+v, want minimum 1x1", tiny)
	}
}

func TestBuiltinPassesWiredSkyboxWorldUI(t *testing.T) {
	cfgs := BuiltinConfigs()
	byName := make(map[string]Config, len(cfgs))
	for _, c := range cfgs {
		byName[c.Name] = c
	}

	skybox, world, ui := byName[BuiltinSkybox], byName[BuiltinWorld], byName[BuiltinUI]
	if skybox.NextName != BuiltinWorld {
		t.Errorf("Skybox.NextName = %q, want World", skybox.NextName)
	}
	if world.PrevName != BuiltinSkybox || world.NextName != BuiltinUI {
		t.Errorf("World chaining = {prev=%q next=%q}, want {Skybox, UI}", world.PrevName, world.NextName)
	}
	if ui.PrevName != BuiltinWorld {
		t.Errorf("UI.PrevName = %q, want World", ui.PrevName)
	}
}

func TestMergeConfigsOverridesBuiltinByName(t *testing.T) {
	override := Config{Name: BuiltinWorld, ClearFlags: ClearColorBuffer}
	merged := mergeConfigs(BuiltinConfigs(), []Config{override})

	count := 0
	for _, c := range merged {
		if c.Name == BuiltinWorld {
			count++
			if c.ClearFlags != ClearColorBuffer {
				t.Errorf("override not applied: ClearFlags = %v", c.ClearFlags)
			}
		}
	}
	if count != 1 {
		t.Errorf("World appears %d times, want exactly 1", count)
	}
}

func TestMergeConfigsAppendsUnknownName(t *testing.T) {
	extra := Config{Name: "Custom.Post", Domain: backend.DomainPost}
	merged := mergeConfigs(BuiltinConfigs(), []Config{extra})
	if len(merged) != len(BuiltinConfigs())+1 {
		t.Fatalf("len(merged) = %d, want %d", len(merged), len(BuiltinConfigs())+1)
	}
}
