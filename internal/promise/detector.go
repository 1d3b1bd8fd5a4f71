// Package promise detects structured completion markers in free-text
// worker output. Detection is plain pattern matching over the text, never
// semantic interpretation of it.
package promise

import (
	"regexp"
	"strings"

	"github.com/loopctl/loopctl/pkg/models"
)

// markerPattern matches markers of the form [[PROMISE:TOKEN]] with any
// trailing content on the same line. Matching is case-sensitive: lowercase
// tokens are prose, not markers.
var markerPattern = regexp.MustCompile(`\[\[PROMISE:(COMPLETE|BLOCKED|ESCALATE)\]\]([^\n]*)`)

// Detect scans text for completion markers and returns every occurrence in
// order. The returned promises carry the marker token and the raw content
// following it on the same line.
func Detect(text string) []models.Promise {
	if text == "" {
		return nil
	}

	matches := markerPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	promises := make([]models.Promise, 0, len(matches))
	for _, m := range matches {
		promises = append(promises, models.Promise{
			Type:     models.PromiseType(m[1]),
			Detected: true,
			Content:  strings.TrimSpace(m[2]),
		})
	}
	return promises
}

// First returns the first detected promise of the given type, or nil.
func First(promises []models.Promise, typ models.PromiseType) *models.Promise {
	for i := range promises {
		if promises[i].Type == typ {
			return &promises[i]
		}
	}
	return nil
}

// Marker renders the canonical marker string for a promise type. Workers
// embed this in their output to signal the controller.
func Marker(typ models.PromiseType) string {
	return "[[PROMISE:" + string(typ) + "]]"
}
