package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type uploadReport struct {
	Ingested []string `json:"ingested"`
	Skipped  []struct {
		Filename string `json:"filename"`
		Reason   string `json:"reason"`
	} `json:"skipped"`
}

// UploadCmd returns the upload command
func UploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload documents for question answering",
		Long:  "Uploads one or more files. Re-uploading a filename replaces the stored document.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("cannot read %s: %w", path, err)
				}
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.PostMultipart("/documents", "files", args)
			if err != nil {
				return err
			}

			var report uploadReport
			if err := json.Unmarshal(resp.Data, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(report, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			for _, name := range report.Ingested {
				fmt.Printf("Uploaded %s\n", name)
			}
			for _, skipped := range report.Skipped {
				fmt.Printf("Skipped %s: %s\n", skipped.Filename, skipped.Reason)
			}
			return nil
		},
	}
}
