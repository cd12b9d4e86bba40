// cmd/microsim/main.go
package main

import (
	"microsim/internal/app"
	"microsim/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
