package main

import (
	"github.com/svscagn/skadi/internal/cli"
)

func main() {
	cli.Execute()
}
