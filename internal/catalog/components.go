package catalog

import "sort"

// ComponentStore answers component metadata lookups from an in-memory set.
type ComponentStore struct {
	components map[string]Component
}

func NewComponentStore() *ComponentStore {
	store := &ComponentStore{components: make(map[string]Component)}
	for _, c := range seedComponents {
		store.components[c.Name] = c
	}
	return store
}

func (s *ComponentStore) List(category string) []Component {
	out := make([]Component, 0, len(s.components))
	for _, c := range s.components {
		if category == "" || c.Category == category {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *ComponentStore) Get(name string) (Component, bool) {
	c, ok := s.components[name]
	return c, ok
}

var seedComponents = []Component{
	{
		Name:        "button",
		Category:    "inputs",
		Description: "Clickable action trigger with filled, outlined and ghost variants.",
		Props: []Prop{
			{Name: "label", Type: "string", Required: true},
			{Name: "variant", Type: "string", Default: "filled"},
			{Name: "disabled", Type: "boolean", Default: "false"},
			{Name: "onClick", Type: "function"},
		},
		Variants: []string{"filled", "outlined", "ghost"},
	},
	{
		Name:        "text-field",
		Category:    "inputs",
		Description: "Single-line text input with label, helper text and error state.",
		Props: []Prop{
			{Name: "label", Type: "string", Required: true},
			{Name: "value", Type: "string", Required: true},
			{Name: "placeholder", Type: "string"},
			{Name: "error", Type: "string"},
		},
		Variants: []string{"outlined", "filled"},
	},
	{
		Name:        "card",
		Category:    "surfaces",
		Description: "Content container with optional header, media and action areas.",
		Props: []Prop{
			{Name: "title", Type: "string"},
			{Name: "elevation", Type: "number", Default: "1"},
		},
		Variants: []string{"elevated", "outlined"},
	},
	{
		Name:        "dialog",
		Category:    "overlays",
		Description: "Modal dialog with focus trapping and a dismissible backdrop.",
		Props: []Prop{
			{Name: "open", Type: "boolean", Required: true},
			{Name: "title", Type: "string", Required: true},
			{Name: "onClose", Type: "function", Required: true},
		},
		Variants: []string{"standard", "fullscreen"},
	},
	{
		Name:        "tabs",
		Category:    "navigation",
		Description: "Horizontal tab list controlling a set of panels.",
		Props: []Prop{
			{Name: "items", Type: "array", Required: true},
			{Name: "active", Type: "number", Default: "0"},
		},
		Variants: []string{"underline", "pill"},
	},
}
