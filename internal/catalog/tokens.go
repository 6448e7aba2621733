package catalog

// TokenStore serves design token groups.
type TokenStore struct {
	groups map[string]TokenGroup
}

func NewTokenStore() *TokenStore {
	store := &TokenStore{groups: make(map[string]TokenGroup)}
	for _, g := range seedTokenGroups {
		store.groups[g.Group] = g
	}
	return store
}

// Get returns one group by name, or every group when name is empty.
func (s *TokenStore) Get(group string) ([]TokenGroup, bool) {
	if group == "" {
		out := make([]TokenGroup, 0, len(s.groups))
		for _, name := range []string{"color", "spacing", "typography"} {
			if g, ok := s.groups[name]; ok {
				out = append(out, g)
			}
		}
		return out, true
	}

	g, ok := s.groups[group]
	if !ok {
		return nil, false
	}
	return []TokenGroup{g}, true
}

var seedTokenGroups = []TokenGroup{
	{
		Group: "color",
		Tokens: map[string]string{
			"primary":     "#2563eb",
			"primary-dim": "#1e40af",
			"surface":     "#ffffff",
			"on-surface":  "#0f172a",
			"danger":      "#dc2626",
			"success":     "#16a34a",
		},
	},
	{
		Group: "spacing",
		Tokens: map[string]string{
			"xs": "4px",
			"sm": "8px",
			"md": "16px",
			"lg": "24px",
			"xl": "40px",
		},
	},
	{
		Group: "typography",
		Tokens: map[string]string{
			"font-family":  "Inter, system-ui, sans-serif",
			"size-body":    "16px",
			"size-caption": "13px",
			"size-heading": "24px",
			"weight-bold":  "600",
		},
	},
}
