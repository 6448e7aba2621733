package catalog

import (
	"context"
	"fmt"
)

// Registry binds tool names to the content stores. It is the single place
// the dispatcher reaches for both the tool catalog and invocation.
type Registry struct {
	components *ComponentStore
	tokens     *TokenStore
	a11y       *A11yStore
	templates  *TemplateStore
	tools      []Tool
}

func NewRegistry() (*Registry, error) {
	components := NewComponentStore()

	templates, err := NewTemplateStore(components)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		components: components,
		tokens:     NewTokenStore(),
		a11y:       NewA11yStore(),
		templates:  templates,
	}
	r.tools = r.buildCatalog()

	return r, nil
}

// Tools returns the static catalog served by tools/list.
func (r *Registry) Tools() []Tool {
	return r.tools
}

// Invoke runs one tool by name. An unknown name or bad arguments is an
// invocation-time error, reported to the caller as a JSON-RPC error, never
// as a transport failure.
func (r *Registry) Invoke(_ context.Context, name string, args map[string]interface{}) (interface{}, error) {
	switch name {
	case "list_components":
		category, err := optionalString(args, "category")
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"components": r.components.List(category)}, nil

	case "get_component":
		componentName, err := requiredString(args, "name")
		if err != nil {
			return nil, err
		}
		component, ok := r.components.Get(componentName)
		if !ok {
			return nil, fmt.Errorf("%w: component %q", ErrNotFound, componentName)
		}
		return component, nil

	case "get_design_tokens":
		group, err := optionalString(args, "group")
		if err != nil {
			return nil, err
		}
		groups, ok := r.tokens.Get(group)
		if !ok {
			return nil, fmt.Errorf("%w: token group %q", ErrNotFound, group)
		}
		return map[string]interface{}{"groups": groups}, nil

	case "get_accessibility_rules":
		componentName, err := requiredString(args, "component")
		if err != nil {
			return nil, err
		}
		rule, ok := r.a11y.Get(componentName)
		if !ok {
			return nil, fmt.Errorf("%w: no accessibility rules for %q", ErrNotFound, componentName)
		}
		return rule, nil

	case "get_component_template":
		componentName, err := requiredString(args, "name")
		if err != nil {
			return nil, err
		}
		framework, err := requiredString(args, "framework")
		if err != nil {
			return nil, err
		}
		code, err := r.templates.Render(componentName, framework)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"framework": framework, "code": code}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
}

func (r *Registry) buildCatalog() []Tool {
	return []Tool{
		{
			Name:        "list_components",
			Description: "List catalog components, optionally filtered by category.",
			InputSchema: schema(map[string]interface{}{
				"category": prop("string", "Filter by category (inputs, surfaces, overlays, navigation)."),
			}),
		},
		{
			Name:        "get_component",
			Description: "Get full metadata for one component.",
			InputSchema: schema(map[string]interface{}{
				"name": prop("string", "Component name, e.g. \"button\"."),
			}, "name"),
		},
		{
			Name:        "get_design_tokens",
			Description: "Get design token groups (color, spacing, typography).",
			InputSchema: schema(map[string]interface{}{
				"group": prop("string", "Token group name; omit for all groups."),
			}),
		},
		{
			Name:        "get_accessibility_rules",
			Description: "Get accessibility guidance for a component.",
			InputSchema: schema(map[string]interface{}{
				"component": prop("string", "Component name."),
			}, "component"),
		},
		{
			Name:        "get_component_template",
			Description: "Render starter code for a component in a target framework.",
			InputSchema: schema(map[string]interface{}{
				"name":      prop("string", "Component name."),
				"framework": prop("string", "Target framework: react or vue."),
			}, "name", "framework"),
		},
	}
}

func schema(props map[string]interface{}, required ...string) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func requiredString(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidArgs, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %q must be a non-empty string", ErrInvalidArgs, key)
	}
	return s, nil
}

func optionalString(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", ErrInvalidArgs, key)
	}
	return s, nil
}
