package main

import (
	"github.com/Paintersrp/sma/internal/cli"
	"github.com/Paintersrp/sma/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
