package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeInstruction(t *testing.T) {
	t.Run("mode preset with topic and insight guidance", func(t *testing.T) {
		got := ComposeInstruction(&SessionSpec{Mode: ModePitch, Topic: "Seed round"})
		assert.True(t, strings.HasPrefix(got, modePrompts[ModePitch]))
		assert.Contains(t, got, "Topic: Seed round")
		assert.Contains(t, got, "show_insight")
		assert.NotContains(t, got, "Script:")
	})

	t.Run("explicit instruction replaces the preset", func(t *testing.T) {
		got := ComposeInstruction(&SessionSpec{Mode: ModePitch, SystemInstruction: "Be brief."})
		assert.True(t, strings.HasPrefix(got, "Be brief."))
		assert.NotContains(t, got, modePrompts[ModePitch])
	})

	t.Run("distraction free drops tool guidance", func(t *testing.T) {
		got := ComposeInstruction(&SessionSpec{DistractionFree: true})
		assert.NotContains(t, got, "show_insight")
		assert.Contains(t, got, quietGuidance)
	})

	t.Run("teleprompter script", func(t *testing.T) {
		got := ComposeInstruction(&SessionSpec{Teleprompter: true, Script: "  Hello world.  "})
		assert.Contains(t, got, teleprompterGuidance)
		assert.True(t, strings.HasSuffix(got, "Script:\nHello world."))
	})

	t.Run("empty mode uses presentation", func(t *testing.T) {
		got := ComposeInstruction(&SessionSpec{})
		assert.True(t, strings.HasPrefix(got, modePrompts[ModePresentation]))
	})
}
