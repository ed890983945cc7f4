package shaderconfig

import (
	"strconv"
	"strings"
)

// rawAttribute and rawUniform hold a declaration exactly as written, before
// layout computation assigns locations/offsets.
type rawAttribute struct {
	typeTok string
	name    string
	line    int
}

type rawUniform struct {
	typeTok string
	scope   string
	name    string
	line    int
}

// rawConfig accumulates every recognised key as parseLines scans the
// source, in source order. Duplicate scalar keys (name, renderpass,
// stages) overwrite silently, matching the spec.
type rawConfig struct {
	name           string
	renderpassName string
	stageTokens    []string
	stageFiles     []string
	attributes     []rawAttribute
	uniforms       []rawUniform
	useInstance    bool
	useLocal       bool
	cullModeTok    string
	sawCullMode    bool
}

// parseLines scans source line by line, case-insensitively matching
// `key = value` pairs (`;` or `#` introduce a comment to end of line),
// accumulating recognised keys into a rawConfig. Unknown keys and
// malformed lines are collected as warnings, not errors, matching the
// spec's "warn and skip" policy. Structural violations (value too long,
// too many attributes/uniforms, bad enum tokens) are returned as
// *ParseError immediately, since those indicate a corrupt or incompatible
// file rather than a stylistic slip.
func parseLines(source string) (*rawConfig, []string, error) {
	cfg := &rawConfig{}
	var warnings []string

	lines := strings.Split(source, "\n")
	for i, raw := range lines {
		lineNum := i + 1
		if len(raw) > MaxLineLength {
			return nil, warnings, newParseError(ErrorBufferOverflow, lineNum, 0, "line exceeds %d bytes", MaxLineLength)
		}

		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			warnings = append(warnings, newParseError(ErrorInvalidFormat, lineNum, 0, "missing '=' in %q", line).Error())
			continue
		}

		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		value := strings.TrimSpace(line[eq+1:])
		if len(key) > MaxKeyLength {
			return nil, warnings, newParseError(ErrorBufferOverflow, lineNum, 0, "key exceeds %d bytes", MaxKeyLength)
		}
		if len(value) > MaxValueLength {
			return nil, warnings, newParseError(ErrorBufferOverflow, lineNum, eq, "value exceeds %d bytes", MaxValueLength)
		}

		if err := applyKey(cfg, key, value, lineNum, &warnings); err != nil {
			return nil, warnings, err
		}
	}

	return cfg, warnings, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return line
}

func applyKey(cfg *rawConfig, key, value string, lineNum int, warnings *[]string) error {
	switch key {
	case "name":
		if len(value) > ShaderNameMaxLength {
			return newParseError(ErrorBufferOverflow, lineNum, 0, "name exceeds %d bytes", ShaderNameMaxLength)
		}
		cfg.name = value
	case "renderpass":
		cfg.renderpassName = value
	case "stages":
		toks := splitCSV(value)
		for _, tok := range toks {
			if tok != "vertex" && tok != "fragment" {
				return newParseError(ErrorInvalidValue, lineNum, 0, "unrecognised stage %q", tok)
			}
		}
		cfg.stageTokens = toks
	case "stagefiles":
		cfg.stageFiles = splitCSV(value)
	case "attribute":
		if len(cfg.attributes) >= MaxAttributes {
			return newParseError(ErrorBufferOverflow, lineNum, 0, "exceeds max %d attributes", MaxAttributes)
		}
		typeTok, name, ok := splitPair(value)
		if !ok {
			return newParseError(ErrorInvalidFormat, lineNum, 0, "malformed attribute %q, want <type>,<name>", value)
		}
		if _, ok := attributeTypeFromString(typeTok); !ok {
			return newParseError(ErrorInvalidValue, lineNum, 0, "unrecognised attribute type %q", typeTok)
		}
		cfg.attributes = append(cfg.attributes, rawAttribute{typeTok: typeTok, name: name, line: lineNum})
	case "uniform":
		if len(cfg.uniforms) >= MaxUniforms {
			return newParseError(ErrorBufferOverflow, lineNum, 0, "exceeds max %d uniforms", MaxUniforms)
		}
		parts := splitCSV(value)
		if len(parts) != 3 {
			return newParseError(ErrorInvalidFormat, lineNum, 0, "malformed uniform %q, want <type>,<scope>,<name>", value)
		}
		if _, ok := uniformTypeFromString(parts[0]); !ok {
			return newParseError(ErrorInvalidValue, lineNum, 0, "unrecognised uniform type %q", parts[0])
		}
		scope, err := strconv.Atoi(parts[1])
		if err != nil || scope < 0 || scope > 2 {
			return newParseError(ErrorInvalidValue, lineNum, 0, "uniform scope %q out of range [0,2]", parts[1])
		}
		cfg.uniforms = append(cfg.uniforms, rawUniform{typeTok: parts[0], scope: parts[1], name: parts[2], line: lineNum})
	case "use_instance":
		b, err := parseBool01(value)
		if err != nil {
			return newParseError(ErrorInvalidValue, lineNum, 0, "use_instance must be 0 or 1, got %q", value)
		}
		cfg.useInstance = b
	case "use_local":
		b, err := parseBool01(value)
		if err != nil {
			return newParseError(ErrorInvalidValue, lineNum, 0, "use_local must be 0 or 1, got %q", value)
		}
		cfg.useLocal = b
	case "cull_mode":
		if _, ok := cullModeFromString(value); !ok {
			return newParseError(ErrorInvalidValue, lineNum, 0, "unrecognised cull_mode %q", value)
		}
		cfg.cullModeTok = value
		cfg.sawCullMode = true
	case "version":
		// Logged by the caller, not stored.
	default:
		*warnings = append(*warnings, newParseError(ErrorInvalidFormat, lineNum, 0, "unknown key %q, ignoring", key).Error())
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitPair splits a "<type>,<name>" value into its two components.
func splitPair(value string) (string, string, bool) {
	parts := splitCSV(value)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func parseBool01(value string) (bool, error) {
	switch value {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, strconv.ErrSyntax
	}
}

func attributeTypeFromString(s string) (AttributeType, bool) {
	switch s {
	case "vec2":
		return AttrVec2, true
	case "vec3":
		return AttrVec3, true
	case "vec4":
		return AttrVec4, true
	default:
		return 0, false
	}
}

func uniformTypeFromString(s string) (UniformType, bool) {
	switch s {
	case "vec2":
		return UniformVec2, true
	case "vec3":
		return UniformVec3, true
	case "vec4":
		return UniformVec4, true
	case "mat4":
		return UniformMat4, true
	case "int32":
		return UniformInt32, true
	case "uint32":
		return UniformUint32, true
	case "float":
		return UniformFloat, true
	case "samp":
		return UniformSampler, true
	default:
		return 0, false
	}
}
