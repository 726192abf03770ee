package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warehouse-tools/whrel/internal/services/build"
)

func TestPrintArtifactsRendersTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintArtifacts(&buf, build.Result{
		Version:        "26.8.2",
		BuildTag:       "abc1234",
		NextDevVersion: "26.8.3.dev0",
		Artifacts: []build.Artifact{
			{Kind: "sdist", Filename: "warehouse-26.8.2.tar.gz", Size: 2048},
			{Kind: "bdist_wheel", Filename: "warehouse-26.8.2-py2.py3-none-any.whl", Size: 512},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "26.8.2")
	assert.Contains(t, out, "abc1234")
	assert.Contains(t, out, "warehouse-26.8.2.tar.gz")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "512 B")
	assert.Contains(t, out, "26.8.3.dev0")
}

func TestPrintArtifactsSkipsEmptyResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintArtifacts(&buf, build.Result{Version: "26.8.2"})

	assert.Empty(t, buf.String())
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "100 B", formatSize(100))
	assert.Equal(t, "1.0 KiB", formatSize(1024))
	assert.Equal(t, "1.5 MiB", formatSize(1024*1024*3/2))
}
