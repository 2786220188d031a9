package main

import (
	"github.com/linkpilot-ai/linkpilot/cmd"
)

func main() {
	cmd.Execute()
}
