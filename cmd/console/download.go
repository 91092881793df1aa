package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veranemoloko/novel-downloader/internal/domain"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a novel by its index page URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		name, _ := cmd.Flags().GetString("name")
		author, _ := cmd.Flags().GetString("author")

		a, err := newApp()
		if err != nil {
			return err
		}

		out, err := a.Download(cmd.Context(), domain.Novel{Name: name, Author: author, Locator: url}, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if out.Kind == domain.OutcomeFailed {
			return fmt.Errorf("download failed: %s", out.Cause)
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().String("url", "", "Novel index page URL")
	downloadCmd.Flags().String("name", "", "Novel name, used in the file name and header")
	downloadCmd.Flags().String("author", "", "Author, used in the file name and header")
	_ = downloadCmd.MarkFlagRequired("url")
	_ = downloadCmd.MarkFlagRequired("name")
	_ = downloadCmd.MarkFlagRequired("author")
}
