package shader

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/Carmen-Shannon/oxy-harness/common"
)

var (
	// ErrShaderStage is returned when the source has no entry point for the requested stage.
	ErrShaderStage = errors.New("shader stage entry point not found")

	// ErrShaderCompile is returned when the WGSL source fails to compile to SPIR-V.
	ErrShaderCompile = errors.New("shader compilation failed")
)

// Artifact is the output of a successful compilation.
type Artifact struct {
	Source     string
	Stage      ShaderType
	EntryPoint string
	SPIRV      []uint32
}

// CompileFunc translates WGSL source into a SPIR-V binary.
type CompileFunc func(source string) ([]byte, error)

// DefaultCompiler compiles with naga.
var DefaultCompiler CompileFunc = naga.Compile

// Compile validates that source declares an entry point for stage and compiles it to SPIR-V.
//
// Parameters:
//   - source: the WGSL source code
//   - stage: the stage whose entry point must be present
//
// Returns:
//   - Artifact: the compiled artifact
//   - error: ErrShaderStage if no entry point exists, ErrShaderCompile if the compiler rejects the source
func Compile(source string, stage ShaderType) (Artifact, error) {
	return compileWith(DefaultCompiler, source, stage)
}

func compileWith(compile CompileFunc, source string, stage ShaderType) (Artifact, error) {
	entryPoint := parseEntryPoint(source, stage)
	if entryPoint == "" {
		return Artifact{}, fmt.Errorf("%w: no @%s function", ErrShaderStage, stage)
	}

	spirv, err := compile(source)
	if err != nil {
		return Artifact{}, errors.Join(ErrShaderCompile, err)
	}
	if len(spirv) == 0 || len(spirv)%4 != 0 {
		return Artifact{}, fmt.Errorf("%w: malformed SPIR-V output of %d bytes", ErrShaderCompile, len(spirv))
	}

	return Artifact{
		Source:     source,
		Stage:      stage,
		EntryPoint: entryPoint,
		SPIRV:      common.SPIRVWords(spirv),
	}, nil
}

func wrapKey(key string, err error) error {
	return fmt.Errorf("shader %q: %w", key, err)
}
