// Package templates embeds the default checklist and subtask template set.
package templates

import _ "embed"

// Default is the YAML template set used when no override file is configured.
//
//go:embed templates.yaml
var Default []byte
