package rhi

import (
	"sync/atomic"

	"github.com/gogpu/rhi/backend"
)

// ShaderStage identifies the pipeline stage a shader program targets.
type ShaderStage = backend.ShaderStage

// Shader stages.
const (
	StageVertex   = backend.StageVertex
	StageFragment = backend.StageFragment
)

// shaderID issues process-unique shader identities for pipeline cache keys.
var shaderID atomic.Uint64

// ShaderDesc describes a shader program to compile.
type ShaderDesc struct {
	Label string

	// Stage the program targets. A program compiled for one stage cannot
	// be bound to the other.
	Stage ShaderStage

	// EntryPoint is the function name within Source. Must be nonempty.
	EntryPoint string

	// Source is WGSL text. Must be nonempty.
	Source string
}

// ShaderProgram is a compiled, device-owned shader module.
type ShaderProgram struct {
	native backend.ShaderModule
	desc   ShaderDesc

	// id is immutable for the program's lifetime and never reused within
	// the process, so cached pipeline keys built from it stay unambiguous.
	id uint64
}

func newShaderProgram(native backend.ShaderModule, desc ShaderDesc) *ShaderProgram {
	return &ShaderProgram{native: native, desc: desc, id: shaderID.Add(1)}
}

func (s *ShaderProgram) Label() string      { return s.desc.Label }
func (s *ShaderProgram) Stage() ShaderStage { return s.desc.Stage }

// EntryPoint returns the entry function name.
func (s *ShaderProgram) EntryPoint() string { return s.desc.EntryPoint }
