// The main package for the wuzzuf-jobs-crawler executable.
package main

import (
	"github.com/JakeFAU/wuzzuf-jobs-crawler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
