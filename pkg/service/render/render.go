package render

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Service resolves named placeholders in response templates into final text.
// It is invoked only after a decision of AUTO_EXECUTE or SUGGEST.
type Service interface {
	Render(template string, vars map[string]string) (string, error)
}

// placeholderPattern matches {name} style placeholders. Names follow the
// same shape operators use in the template editor.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

type service struct{}

// New creates a placeholder-substitution rendering service
func New() Service {
	return &service{}
}

// Render substitutes every {name} placeholder from vars. An unresolved
// placeholder is an error: a half-rendered response must never be sent to a
// customer.
func (s *service) Render(template string, vars map[string]string) (string, error) {
	var unresolved []string

	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.Trim(match, "{}")
		if value, ok := vars[name]; ok {
			return value
		}
		unresolved = append(unresolved, name)
		return match
	})

	if len(unresolved) > 0 {
		return "", goerr.New("unresolved placeholders in response template",
			goerr.V("placeholders", unresolved))
	}

	return rendered, nil
}
