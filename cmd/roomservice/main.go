// Command roomservice runs the room service order assistant: the HTTP API,
// an interactive chat session, one-off intent classification and the
// scripted scenario evaluator.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
