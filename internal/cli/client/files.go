package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// FilesCmd returns the files command
func FilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage uploaded documents",
	}

	cmd.AddCommand(filesListCmd())
	cmd.AddCommand(filesDownloadCmd())

	return cmd
}

func filesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents in upload order",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/documents")
			if err != nil {
				return err
			}

			var filenames []string
			if err := json.Unmarshal(resp.Data, &filenames); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(filenames, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(filenames) == 0 {
				fmt.Println("No documents uploaded")
				return nil
			}

			for _, name := range filenames {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func filesDownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <filename>",
		Short: "Download an uploaded document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/documents/" + filename + "/download")
			if err != nil {
				return err
			}

			var result struct {
				DownloadURL string `json:"download_url"`
			}
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputPath := output
			if outputPath == "" {
				outputPath = filename
			}

			if err := api.DownloadFile(result.DownloadURL, outputPath); err != nil {
				return err
			}

			fmt.Printf("Downloaded %s to %s\n", filename, outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output-file", "o", "", "Output path (default: the original filename)")

	return cmd
}
