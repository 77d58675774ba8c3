//go:build tools

// Package pingup tracks tool dependencies invoked through go generate.
package pingup

import (
	_ "go.uber.org/mock/mockgen"
)
