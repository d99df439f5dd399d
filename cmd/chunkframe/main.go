package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "chunkframe"}
	root.PersistentFlags().IntP("threads", "j", 0, "max worker threads (0 = all CPUs)")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")
	addCommands(root)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
