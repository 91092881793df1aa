package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search novels by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		novels, err := a.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		printResults(cmd.OutOrStdout(), novels)
		if len(novels) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "下载: console download --url <地址> --name <书名> --author <作者>")
		}
		return nil
	},
}
