// Package catalog serves the UI component content the tools expose:
// component metadata, design tokens, accessibility rules and code
// templates. Lookups are static; all request-path complexity lives in the
// admission pipeline, not here.
package catalog

import "errors"

var (
	// ErrUnknownTool marks an invocation of a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArgs marks missing or malformed tool arguments.
	ErrInvalidArgs = errors.New("invalid tool arguments")
	// ErrNotFound marks a lookup for content that does not exist.
	ErrNotFound = errors.New("not found")
)

// Tool describes one entry in the tool catalog served by tools/list.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Component is the metadata record for one catalog entry.
type Component struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Props       []Prop   `json:"props"`
	Variants    []string `json:"variants"`
}

type Prop struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
}

// TokenGroup is one family of design tokens (color, spacing, typography).
type TokenGroup struct {
	Group  string            `json:"group"`
	Tokens map[string]string `json:"tokens"`
}

// A11yRule is accessibility guidance for a component.
type A11yRule struct {
	Component string   `json:"component"`
	Rules     []string `json:"rules"`
}
