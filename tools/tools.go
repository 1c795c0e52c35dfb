//go:build tools
// +build tools

// Pins oapi-codegen into go.mod so every checkout regenerates the admin API
// with the same generator version. Excluded from normal builds by the tag.

package tools

import (
	_ "github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen"
)
