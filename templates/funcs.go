package templates

import (
	"encoding/json"
	"html/template"
)

// toJSON renders v for embedding in a <script> block.
func toJSON(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
