package shaderconfig

import (
	"errors"
	"os"
)

// Parse parses a `.shadercfg` source string into a validated, fully
// laid-out Config. Warnings (unknown keys, malformed lines, missing
// expected attributes) are returned alongside a successful Config rather
// than failing the parse, matching the spec's "warn and skip" policy for
// non-structural issues.
func Parse(source string) (*Config, []string, error) {
	raw, warnings, err := parseLines(source)
	if err != nil {
		return nil, warnings, err
	}

	if raw.name == "" {
		return nil, warnings, newParseError(ErrorMissingRequiredField, 0, 0, "name is required")
	}
	if len(raw.stageTokens) == 0 {
		return nil, warnings, newParseError(ErrorMissingRequiredField, 0, 0, "stages is required")
	}

	renderpassName := raw.renderpassName
	vt := detectVertexType(renderpassName, raw.attributes)
	if renderpassName == "" {
		if vt == VertexType3D {
			renderpassName = BuiltinRenderpassWorld
		} else {
			renderpassName = BuiltinRenderpassUI
		}
	}

	stages, err := buildStages(raw)
	if err != nil {
		return nil, warnings, err
	}

	attrs, attrIndex, stride, attrWarnings := computeAttributeLayout(vt, raw.attributes)
	warnings = append(warnings, attrWarnings...)

	uniforms, uniformIndex, globalSize, instanceSize, pushSize, globalTex, instanceTex := computeUniformLayout(raw.uniforms)

	cullMode := CullBack
	if raw.sawCullMode {
		cullMode, _ = cullModeFromString(raw.cullModeTok)
	}

	cfg := &Config{
		Name:                 raw.name,
		RenderpassName:       renderpassName,
		Stages:               stages,
		Attributes:           attrs,
		Uniforms:             uniforms,
		VertexType:           vt,
		AttributeStride:      stride,
		GlobalUBOSize:        globalSize,
		GlobalUBOStride:      alignUp(globalSize, UBOAlignment),
		InstanceUBOSize:      instanceSize,
		InstanceUBOStride:    alignUp(instanceSize, UBOAlignment),
		PushConstantSize:     pushSize,
		PushConstantStride:   alignUp(pushSize, 4),
		GlobalTextureCount:   globalTex,
		InstanceTextureCount: instanceTex,
		CullMode:             cullMode,
		UseInstance:          raw.useInstance,
		UseLocal:             raw.useLocal,
		attributeIndex:       attrIndex,
		uniformIndex:         uniformIndex,
	}

	return cfg, warnings, nil
}

// ParseFile reads and parses a `.shadercfg` file from disk.
func ParseFile(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, newParseError(ErrorFileNotFound, 0, 0, "%s: %v", path, err)
		}
		return nil, nil, newParseError(ErrorFileReadFailed, 0, 0, "%s: %v", path, err)
	}
	return Parse(string(data))
}

func buildStages(raw *rawConfig) ([]Stage, error) {
	stages := make([]Stage, 0, len(raw.stageTokens))
	for i, tok := range raw.stageTokens {
		var kind StageKind
		var entry string
		switch tok {
		case "vertex":
			kind, entry = StageVertex, "vertexMain"
		case "fragment":
			kind, entry = StageFragment, "fragmentMain"
		default:
			return nil, newParseError(ErrorInvalidValue, 0, 0, "unrecognised stage %q", tok)
		}

		filename := ""
		switch {
		case len(raw.stageFiles) == 1:
			filename = raw.stageFiles[0]
		case i < len(raw.stageFiles):
			filename = raw.stageFiles[i]
		}

		stages = append(stages, Stage{Kind: kind, EntryPoint: entry, Filename: filename})
	}
	return stages, nil
}
