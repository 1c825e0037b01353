/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "logmatcherd",
		Short: "logmatcherd runs the log template matching engine",
	}
	root.AddCommand(serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Printf("logmatcherd error %+v\n", err)
		os.Exit(1)
	}
}
