package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnchorFromTitle(t *testing.T) {
	cases := map[string]string{
		"Introduction":             "introduction",
		"  Getting   Started  ":    "getting-started",
		"Configuración de Red":     "configuracion-de-red",
		"What's New?":              "whats-new",
		"CLI: docship publish":     "cli-docship-publish",
		"foo_bar-baz":              "foo_bar-baz",
		"Überblick":                "uberblick",
		"--- Leading and Trailing": "leading-and-trailing",
	}
	for title, want := range cases {
		assert.Equal(t, want, anchorFromTitle(title), "title %q", title)
	}
}
