// cmd/sicksicker/main.go
package main

import (
	"microsim/internal/appshell"
	"microsim/internal/sicksickerapp"
)

func main() { appshell.MainDefaults(sicksickerapp.RunContext) }
