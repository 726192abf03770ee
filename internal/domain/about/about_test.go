package about

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderStampsVersionAndBuild(t *testing.T) {
	t.Parallel()

	content := Render(Default(), "26.8.3", "abc1234")

	assert.Contains(t, content, `__version__ = "26.8.3"`)
	assert.Contains(t, content, `__build__ = "abc1234"`)
	assert.Contains(t, content, `__title__ = "warehouse"`)
	assert.Contains(t, content, "# This file is automatically generated, do not edit it")
}

func TestRenderDevelopmentValues(t *testing.T) {
	t.Parallel()

	content := Render(Default(), "26.8.4.dev0", "<development>")

	assert.Contains(t, content, `__version__ = "26.8.4.dev0"`)
	assert.Contains(t, content, `__build__ = "<development>"`)
}

func TestRenderIsDeterministicAndNewlineTerminated(t *testing.T) {
	t.Parallel()

	first := Render(Default(), "26.8.0", "abc1234")
	second := Render(Default(), "26.8.0", "abc1234")

	assert.Equal(t, first, second)
	assert.True(t, strings.HasSuffix(first, "\n"))
	assert.False(t, strings.HasPrefix(first, "\n"))
}

func TestRenderUsesProvidedMetadata(t *testing.T) {
	t.Parallel()

	meta := Metadata{
		Title:     "example",
		Summary:   "An example project",
		URI:       "https://example.invalid/example",
		Author:    "Jane Doe",
		Email:     "jane@example.invalid",
		License:   "MIT",
		Copyright: "Copyright 2026 Jane Doe",
	}

	content := Render(meta, "1.0.0", "deadbee")

	assert.Contains(t, content, `__title__ = "example"`)
	assert.Contains(t, content, `__author__ = "Jane Doe"`)
	assert.Contains(t, content, "# Copyright 2026 Jane Doe")
}
