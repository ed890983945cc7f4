package renderpass

import (
	"fmt"
	"strings"

	vk "github.com/goki/vulkan"

	"github.com/Panbok/vulkan-renderer-sub009/backend"
)

// Built-in pass names, guaranteed present in every Registry, wired
// Skybox → World → UI.
const (
	BuiltinSkybox = "Renderpass.Builtin.Skybox"
	BuiltinWorld  = "Renderpass.Builtin.World"
	BuiltinUI     = "Renderpass.Builtin.UI"
)

// BuiltinConfigs returns the three guaranteed passes wired
// Skybox → World → UI, with the domain-specific opinionated defaults
// from spec §4.4. Callers (Registry.Create) override any of these with
// host-supplied configs of the same name.
func BuiltinConfigs() []Config {
	return []Config{
		{
			Name:     BuiltinSkybox,
			NextName: BuiltinWorld,
			Domain:   backend.DomainSkybox,
			ClearColor: [4]float32{0, 0, 0, 1},
			ClearFlags: ClearColorBuffer,
		},
		{
			Name:     BuiltinWorld,
			PrevName: BuiltinSkybox,
			NextName: BuiltinUI,
			Domain:   backend.DomainWorld,
			ClearColor: [4]float32{0, 0, 0, 1},
			ClearFlags: ClearColorBuffer | ClearDepthBuffer | UseDepth,
		},
		{
			Name:     BuiltinUI,
			PrevName: BuiltinWorld,
			Domain:   backend.DomainUI,
		},
	}
}

// Registry is a bounded, ordered collection of named render passes keyed
// case-insensitively, with chaining maintained via each Config's
// PrevName/NextName.
type Registry struct {
	device     vk.Device
	allocator  *vk.AllocationCallbacks
	colorFmt   vk.Format
	depthFmt   vk.Format
	order      []string
	byName     map[string]*Pass
}

// NewRegistry creates the registry and its three built-in passes. Any
// configs in overrides whose Name matches a built-in replace it; others
// are appended in order.
func NewRegistry(device vk.Device, allocator *vk.AllocationCallbacks, colorFormat, depthFormat vk.Format, overrides []Config) (*Registry, error) {
	r := &Registry{
		device:    device,
		allocator: allocator,
		colorFmt:  colorFormat,
		depthFmt:  depthFormat,
		byName:    make(map[string]*Pass),
	}

	merged := mergeConfigs(BuiltinConfigs(), overrides)
	for _, cfg := range merged {
		if err := r.add(cfg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func mergeConfigs(builtins, overrides []Config) []Config {
	result := make([]Config, len(builtins))
	copy(result, builtins)
	for _, o := range overrides {
		key := normalize(o.Name)
		replaced := false
		for i, b := range result {
			if normalize(b.Name) == key {
				result[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			result = append(result, o)
		}
	}
	return result
}

func normalize(name string) string { return strings.ToLower(name) }

func (r *Registry) add(cfg Config) error {
	pass, err := Create(r.device, r.allocator, r.colorFmt, r.depthFmt, cfg)
	if err != nil {
		return err
	}
	key := normalize(cfg.Name)
	if _, exists := r.byName[key]; !exists {
		r.order = append(r.order, key)
	}
	r.byName[key] = pass
	return nil
}

// Get looks up a pass by case-insensitive name.
func (r *Registry) Get(name string) (*Pass, bool) {
	p, ok := r.byName[normalize(name)]
	return p, ok
}

// NameForDomain reports the registered pass name that handles domain,
// per spec §4.4: WORLD_TRANSPARENT aliases WORLD's pass, and any other
// domain resolves to whichever registered pass (built-in or
// host-supplied override) declares it, in registration order. Returns
// false if no registered pass declares domain, which is expected for
// any domain the host hasn't added a matching override for yet.
func (r *Registry) NameForDomain(domain backend.Domain) (string, bool) {
	if domain == backend.DomainWorldTransparent {
		domain = backend.DomainWorld
	}
	for _, key := range r.order {
		pass, ok := r.byName[key]
		if ok && pass.Domain == domain {
			return pass.Name, true
		}
	}
	return "", false
}

// Begin begins the named pass against framebuffer, validating the handle
// exists.
func (r *Registry) Begin(cmd vk.CommandBuffer, name string, framebuffer vk.Framebuffer, targetWidth, targetHeight uint32) (*Pass, error) {
	pass, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("renderpass: unknown pass %q", name)
	}
	pass.Begin(cmd, framebuffer, targetWidth, targetHeight)
	return pass, nil
}

// End ends pass's recording and reports whether it is terminal
// (NextName empty), signalling the caller to mark the swapchain image
// present-ready per spec §4.4.
func (r *Registry) End(cmd vk.CommandBuffer, pass *Pass) (terminal bool) {
	pass.End(cmd)
	return !pass.HasNextPass
}

// Names returns every registered pass's original-case name, in
// registration order, for callers (framebuffer construction) that must
// build one framebuffer set per pass.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, key := range r.order {
		if p, ok := r.byName[key]; ok {
			names = append(names, p.Name)
		}
	}
	return names
}

// Destroy releases every registered pass's device object.
func (r *Registry) Destroy() {
	for _, name := range r.order {
		if p, ok := r.byName[name]; ok {
			p.Destroy(r.device, r.allocator)
		}
	}
}
