//go:build tools
// +build tools

// Package tools pins development tool dependencies so they are tracked
// in go.mod without being imported by the main code.
package tools

import (
	_ "github.com/golangci/golangci-lint/v2/cmd/golangci-lint"
	_ "github.com/securego/gosec/v2/cmd/gosec"
	_ "golang.org/x/vuln/cmd/govulncheck"
)
