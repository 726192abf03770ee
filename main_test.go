package main

import (
	"testing"

	"github.com/warehouse-tools/whrel/internal/version"
)

func TestVersionMetadataPresent(t *testing.T) {
	if version.Version == "" {
		t.Error("version should not be empty")
	}
	if version.BuildDate == "" {
		t.Error("build date should not be empty")
	}
}
