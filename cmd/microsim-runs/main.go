// cmd/microsim-runs/main.go
package main

import (
	"microsim/internal/appshell"
	"microsim/internal/runsapp"
)

func main() { appshell.Main(runsapp.RunContext) }
