package catalog

import (
	"fmt"
	"strings"
	"text/template"
)

// TemplateStore renders starter code for a component in a target framework.
// Rendering is plain string templating, not codegen.
type TemplateStore struct {
	components *ComponentStore
	templates  map[string]*template.Template
}

func NewTemplateStore(components *ComponentStore) (*TemplateStore, error) {
	store := &TemplateStore{
		components: components,
		templates:  make(map[string]*template.Template),
	}

	for framework, text := range templateSources {
		tmpl, err := template.New(framework).Funcs(template.FuncMap{
			"pascal": toPascal,
		}).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", framework, err)
		}
		store.templates[framework] = tmpl
	}

	return store, nil
}

func (s *TemplateStore) Render(componentName, framework string) (string, error) {
	component, ok := s.components.Get(componentName)
	if !ok {
		return "", fmt.Errorf("%w: component %q", ErrNotFound, componentName)
	}

	tmpl, ok := s.templates[framework]
	if !ok {
		return "", fmt.Errorf("%w: framework %q", ErrNotFound, framework)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, component); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return sb.String(), nil
}

func toPascal(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "")
}

var templateSources = map[string]string{
	"react": `import React from 'react';

export function {{pascal .Name}}({ {{range $i, $p := .Props}}{{if $i}}, {{end}}{{$p.Name}}{{if $p.Default}} = {{$p.Default}}{{end}}{{end}} }) {
  // {{.Description}}
  return (
    <div className="{{.Name}}">
      {/* TODO: implement {{.Name}} */}
    </div>
  );
}
`,
	"vue": `<script setup>
// {{.Description}}
defineProps({
{{- range .Props}}
  {{.Name}}: { type: {{pascal .Type}}{{if .Required}}, required: true{{end}} },
{{- end}}
});
</script>

<template>
  <div class="{{.Name}}">
    <!-- TODO: implement {{.Name}} -->
  </div>
</template>
`,
}
