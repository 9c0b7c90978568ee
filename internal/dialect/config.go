package dialect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ToolCallMode selects how a dialect signals tool invocations.
type ToolCallMode string

const (
	ToolCallsNone   ToolCallMode = "none"
	ToolCallsNative ToolCallMode = "native" // structured name/argument fragments
	ToolCallsPrefix ToolCallMode = "prefix" // "Action:"-style marker, payload runs to end of stream
	ToolCallsTag    ToolCallMode = "tag"    // <tool_call>payload</tool_call>
)

// ReasoningMode selects how a dialect separates reasoning text from the answer.
type ReasoningMode string

const (
	ReasoningNone    ReasoningMode = "none"
	ReasoningChannel ReasoningMode = "channel" // separate reasoning_content field
	ReasoningInline  ReasoningMode = "inline"  // single channel split by a delimiter
)

// Anchor restricts where in the response a tool marker may begin.
type Anchor string

const (
	AnchorAnywhere Anchor = "anywhere"
	AnchorLine     Anchor = "line"
	AnchorStart    Anchor = "start"
)

// MalformedPolicy decides what happens to captured text that does not parse as a
// tool call.
type MalformedPolicy string

const (
	MalformedDrop    MalformedPolicy = "drop"
	MalformedContent MalformedPolicy = "content"
)

// Config describes one backend dialect. A Config is treated as immutable once a turn
// starts decoding with it.
type Config struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description"`
	// Provider feeds finish-reason normalisation (openai, anthropic, google, ollama).
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty" toml:"provider"`

	ToolCalls    ToolCallMode    `json:"tool_calls" yaml:"tool_calls" toml:"tool_calls"`
	ToolMarkers  []string        `json:"tool_markers,omitempty" yaml:"tool_markers,omitempty" toml:"tool_markers"`
	ToolCloseTag string          `json:"tool_close_tag,omitempty" yaml:"tool_close_tag,omitempty" toml:"tool_close_tag"`
	MarkerAnchor Anchor          `json:"marker_anchor,omitempty" yaml:"marker_anchor,omitempty" toml:"marker_anchor"`
	OnMalformed  MalformedPolicy `json:"on_malformed,omitempty" yaml:"on_malformed,omitempty" toml:"on_malformed"`

	Reasoning          ReasoningMode `json:"reasoning" yaml:"reasoning" toml:"reasoning"`
	ReasoningDelimiter string        `json:"reasoning_delimiter,omitempty" yaml:"reasoning_delimiter,omitempty" toml:"reasoning_delimiter"`
	ReasoningOpenTag   string        `json:"reasoning_open_tag,omitempty" yaml:"reasoning_open_tag,omitempty" toml:"reasoning_open_tag"`

	// ContinueAfterSeal keeps accepting argument fragments after the backend has
	// already reported function_call.
	ContinueAfterSeal bool `json:"continue_after_seal,omitempty" yaml:"continue_after_seal,omitempty" toml:"continue_after_seal"`
	// AppendToolCallTurns appends an assistant message for turns that produced a tool
	// call but no visible content.
	AppendToolCallTurns bool `json:"append_tool_call_turns,omitempty" yaml:"append_tool_call_turns,omitempty" toml:"append_tool_call_turns"`
}

// LoadFile reads a dialect definition. The format is chosen by extension: .json,
// .toml, otherwise YAML.
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(b, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes, defaults and validates a dialect definition in the format named by ext.
func Parse(b []byte, ext string) (Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c == nil {
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.ToolCalls == "" {
		c.ToolCalls = ToolCallsNone
	}
	if c.Reasoning == "" {
		c.Reasoning = ReasoningNone
	}
	if c.MarkerAnchor == "" {
		c.MarkerAnchor = AnchorAnywhere
	}
	if c.OnMalformed == "" {
		c.OnMalformed = MalformedDrop
	}
	if c.ToolCalls == ToolCallsTag {
		if len(c.ToolMarkers) == 0 {
			c.ToolMarkers = []string{"<tool_call>"}
		}
		if c.ToolCloseTag == "" {
			c.ToolCloseTag = "</tool_call>"
		}
	}
	if c.Reasoning == ReasoningInline && c.ReasoningDelimiter == "" {
		c.ReasoningDelimiter = "</think>"
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("dialect config is nil")
	}
	if c.Name == "" {
		return fmt.Errorf("dialect name is required")
	}
	switch c.ToolCalls {
	case ToolCallsNone, ToolCallsNative:
	case ToolCallsPrefix, ToolCallsTag:
		if len(c.ToolMarkers) == 0 {
			return fmt.Errorf("dialect %q: tool_markers is required for tool_calls=%s", c.Name, c.ToolCalls)
		}
		for _, m := range c.ToolMarkers {
			if m == "" {
				return fmt.Errorf("dialect %q: empty tool marker", c.Name)
			}
		}
	default:
		return fmt.Errorf("dialect %q: invalid tool_calls: %q (want none|native|prefix|tag)", c.Name, c.ToolCalls)
	}
	if c.ToolCalls == ToolCallsTag && c.ToolCloseTag == "" {
		return fmt.Errorf("dialect %q: tool_close_tag is required for tool_calls=tag", c.Name)
	}
	switch c.MarkerAnchor {
	case AnchorAnywhere, AnchorLine, AnchorStart:
	default:
		return fmt.Errorf("dialect %q: invalid marker_anchor: %q (want anywhere|line|start)", c.Name, c.MarkerAnchor)
	}
	switch c.OnMalformed {
	case MalformedDrop, MalformedContent:
	default:
		return fmt.Errorf("dialect %q: invalid on_malformed: %q (want drop|content)", c.Name, c.OnMalformed)
	}
	switch c.Reasoning {
	case ReasoningNone, ReasoningChannel:
	case ReasoningInline:
		if c.ReasoningDelimiter == "" {
			return fmt.Errorf("dialect %q: reasoning_delimiter is required for reasoning=inline", c.Name)
		}
	default:
		return fmt.Errorf("dialect %q: invalid reasoning: %q (want none|channel|inline)", c.Name, c.Reasoning)
	}
	return nil
}

// Clone returns a deep copy so a decoder can hold the config without aliasing the
// caller's marker slice.
func (c Config) Clone() Config {
	c.ToolMarkers = append([]string(nil), c.ToolMarkers...)
	return c
}
