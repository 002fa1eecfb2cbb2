// Voiceboard - canvas-based voice agent builder.
//
// Voiceboard lets an operator assemble a voice-driven business agent
// from visual building blocks and compiles the arrangement into the
// normalized configuration the agent runtime executes.
package main

import (
	"fmt"
	"os"

	"github.com/sungrove/voiceboard-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
