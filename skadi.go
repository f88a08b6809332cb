package skadi

import (
	_ "embed"
)

//go:embed VERSION
var Version string

//go:embed skadi.toml
var DefaultConfig string
