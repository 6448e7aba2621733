package catalog

// A11yStore serves per-component accessibility guidance.
type A11yStore struct {
	rules map[string]A11yRule
}

func NewA11yStore() *A11yStore {
	store := &A11yStore{rules: make(map[string]A11yRule)}
	for _, r := range seedA11yRules {
		store.rules[r.Component] = r
	}
	return store
}

func (s *A11yStore) Get(component string) (A11yRule, bool) {
	r, ok := s.rules[component]
	return r, ok
}

var seedA11yRules = []A11yRule{
	{
		Component: "button",
		Rules: []string{
			"Use a native <button> element, not a div with a click handler.",
			"Icon-only buttons need an aria-label.",
			"Disabled buttons must keep a 3:1 contrast ratio against the surface.",
		},
	},
	{
		Component: "text-field",
		Rules: []string{
			"Associate the label with the input via htmlFor/id.",
			"Expose validation errors with aria-describedby and aria-invalid.",
			"Placeholder text is not a substitute for a visible label.",
		},
	},
	{
		Component: "dialog",
		Rules: []string{
			"Set role=dialog and aria-modal=true on the container.",
			"Move focus into the dialog on open and restore it on close.",
			"Escape must close the dialog unless data loss would result.",
		},
	},
	{
		Component: "tabs",
		Rules: []string{
			"Use role=tablist, role=tab and role=tabpanel.",
			"Arrow keys move between tabs; Tab moves into the panel.",
			"The active tab has aria-selected=true and tabindex=0.",
		},
	},
}
