package notifications

import (
	"bytes"
	"fmt"
	"text/template"
)

// renderTemplate compiles template text with strict missing-key semantics.
func renderTemplate(name, tmpl string, data any) (string, error) {
	if tmpl == "" {
		return "", fmt.Errorf("notifications: template text required")
	}
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("notifications: parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notifications: execute %s: %w", name, err)
	}
	return buf.String(), nil
}
