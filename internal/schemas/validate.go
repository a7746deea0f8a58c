// Package schemas embeds the JSON Schemas for model output and applies them.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed insight.schema.json
var insightSchema string

// ValidationError reports the field-level problems found in a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Problems, "; "))
}

// ValidateInsight checks that a cleaned model response carries the required
// briefing shape (a JSON object with a string "pretty" field). It returns a
// *ValidationError when the document is well-formed JSON of the wrong shape,
// and a plain error when the document cannot be evaluated at all.
func ValidateInsight(document string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(insightSchema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		return fmt.Errorf("failed to evaluate insight document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return &ValidationError{Problems: problems}
}
