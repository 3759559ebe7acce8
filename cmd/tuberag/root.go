package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{
		Use:   "tuberag",
		Short: "Ask questions about any YouTube video's transcript",
	}

	root.AddCommand(serveCMD(), migrateCMD(), ingestCMD(), askCMD(), purgeCMD())
	_ = root.Execute()
}
