package main

import (
	"github.com/Giladt2789/pods-limit-checker-tool/cmd"
)

func main() {
	cmd.Execute()
}
