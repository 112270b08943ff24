package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	lineCommentRegex  = regexp.MustCompile(`//[^\n]*`)
	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// entryPointRegex captures the stage attribute and the function name that follows it.
	entryPointRegex = regexp.MustCompile(`(?s)@(vertex|fragment|compute)\b[^{;]*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(2) var<uniform> geometry: vec4<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// wgslScalarSizes maps the host-shareable types used in uniform blocks to their size in bytes.
var wgslScalarSizes = map[string]uint64{
	"f32":         4,
	"u32":         4,
	"i32":         4,
	"vec2f":       8,
	"vec2<f32>":   8,
	"vec3f":       12,
	"vec3<f32>":   12,
	"vec4f":       16,
	"vec4<f32>":   16,
	"vec4u":       16,
	"vec4<u32>":   16,
	"mat4x4f":     64,
	"mat4x4<f32>": 64,
}

func stripComments(source string) string {
	return lineCommentRegex.ReplaceAllString(blockCommentRegex.ReplaceAllString(source, ""), "")
}

// parseEntryPoint returns the first function annotated with the stage attribute, or "" if none.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - stage: the stage to search for
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, stage ShaderType) string {
	want := stage.String()
	for _, match := range entryPointRegex.FindAllStringSubmatch(stripComments(source), -1) {
		if match[1] == want {
			return match[2]
		}
	}
	return ""
}

// parseBindGroupLayouts extracts every @group(N) @binding(M) declaration and groups the
// resulting layout entries by group index, sorted by binding. The visibility flag is applied
// to every entry.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)

	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(stripComments(source), -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		typeName := strings.TrimSpace(match[5])

		groups[group] = append(groups[group], classifyResource(uint32(binding), visibility, addressSpace, typeName))
		if varNames[group] == nil {
			varNames[group] = make(map[int]string)
		}
		varNames[group][binding] = match[4]
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result, varNames
}

// classifyResource builds the layout entry for one declaration from its address space and type.
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}

	switch {
	case addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = wgslScalarSizes[typeName]
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_2d"):
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		if strings.Contains(typeName, "<u32>") {
			entry.Texture.SampleType = wgpu.TextureSampleTypeUint
		} else if strings.Contains(typeName, "<i32>") {
			entry.Texture.SampleType = wgpu.TextureSampleTypeSint
		}
	}

	return entry
}

// MergeBindGroupLayouts combines the layouts of several stages. Entries sharing a group and
// binding are merged by OR-ing their visibility.
//
// Parameters:
//   - stages: per-stage layouts as returned by Shader.BindGroupLayoutDescriptors
//
// Returns:
//   - []wgpu.BindGroupLayoutDescriptor: one descriptor per group index from 0 to the highest group used
func MergeBindGroupLayouts(stages ...map[int]wgpu.BindGroupLayoutDescriptor) []wgpu.BindGroupLayoutDescriptor {
	maxGroup := -1
	merged := make(map[int]map[uint32]wgpu.BindGroupLayoutEntry)
	for _, stage := range stages {
		for g, desc := range stage {
			if g > maxGroup {
				maxGroup = g
			}
			if merged[g] == nil {
				merged[g] = make(map[uint32]wgpu.BindGroupLayoutEntry)
			}
			for _, e := range desc.Entries {
				if existing, ok := merged[g][e.Binding]; ok {
					existing.Visibility |= e.Visibility
					merged[g][e.Binding] = existing
					continue
				}
				merged[g][e.Binding] = e
			}
		}
	}

	result := make([]wgpu.BindGroupLayoutDescriptor, maxGroup+1)
	for g := range result {
		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(merged[g]))
		for _, e := range merged[g] {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result
}
