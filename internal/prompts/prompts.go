// Package prompts holds the instruction prompts and response schemas of the
// agents. Defaults are embedded; a YAML file can override them and is
// reloaded when it changes.
package prompts

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed files/prompts.yaml
var defaultPackYAML []byte

//go:embed files/decomposer-response-schema.json
var decomposerSchema []byte

//go:embed files/checker-response-schema.json
var checkerSchema []byte

// Kind names an agent whose instruction is requested.
type Kind string

const (
	// KindDecomposer is the task decomposer agent.
	KindDecomposer Kind = "decomposer"
	// KindChecker is the decomposition checker agent.
	KindChecker Kind = "checker"
)

// Provider returns the full system instruction for an agent.
type Provider interface {
	Instruction(kind Kind) string
}

// AgentPrompt is the prompt configuration of one agent.
type AgentPrompt struct {
	// Instruction is the rules text.
	Instruction string `yaml:"instruction"`
	// Schema is the JSON response schema appended after the rules.
	Schema string `yaml:"schema,omitempty"`
}

// Pack is a complete set of agent prompts.
type Pack struct {
	Decomposer AgentPrompt `yaml:"decomposer"`
	Checker    AgentPrompt `yaml:"checker"`
}

// Default returns the embedded prompt pack.
func Default() *Pack {
	pack, err := Parse(defaultPackYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt pack is invalid: %v", err))
	}
	pack.Decomposer.Schema = compactJSON(decomposerSchema)
	pack.Checker.Schema = compactJSON(checkerSchema)
	return pack
}

// Template returns the default prompt pack, schemas included, as YAML for
// users who want to start an override file from the built-in prompts.
func Template() []byte {
	out, err := yaml.Marshal(Default())
	if err != nil {
		panic(fmt.Sprintf("marshal default prompt pack: %v", err))
	}
	return out
}

// Parse decodes a YAML prompt pack. Missing fields stay empty.
func Parse(data []byte) (*Pack, error) {
	pack := &Pack{}
	if err := yaml.Unmarshal(data, pack); err != nil {
		return nil, fmt.Errorf("unmarshal prompt pack: %w", err)
	}
	return pack, nil
}

// Instruction implements Provider.
func (p *Pack) Instruction(kind Kind) string {
	switch kind {
	case KindDecomposer:
		return render(p.Decomposer)
	case KindChecker:
		return render(p.Checker)
	default:
		return ""
	}
}

// withDefaults returns a copy of p where every empty field is taken from base.
func (p *Pack) withDefaults(base *Pack) *Pack {
	out := *p
	fill := func(dst *AgentPrompt, src AgentPrompt) {
		if strings.TrimSpace(dst.Instruction) == "" {
			dst.Instruction = src.Instruction
		}
		if strings.TrimSpace(dst.Schema) == "" {
			dst.Schema = src.Schema
		} else {
			dst.Schema = compactJSON([]byte(dst.Schema))
		}
	}
	fill(&out.Decomposer, base.Decomposer)
	fill(&out.Checker, base.Checker)
	return &out
}

func render(p AgentPrompt) string {
	instruction := strings.TrimSpace(p.Instruction)
	if p.Schema == "" {
		return instruction
	}
	return instruction + " " + p.Schema
}

// compactJSON strips insignificant whitespace. Invalid JSON is returned trimmed.
func compactJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return strings.TrimSpace(string(data))
	}
	return buf.String()
}
