// File: internal/infra/metrics/metrics.go
package metrics

import "strings"

// norm keeps label cardinality sane regardless of caller casing.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
