package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type archivePreview struct {
	StartedAt    string `json:"started_at"`
	EndedAt      string `json:"ended_at"`
	TurnCount    int    `json:"turn_count"`
	FirstContent string `json:"first_content"`
	LastContent  string `json:"last_content"`
}

type archiveDetail struct {
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at"`
	Turns     []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"turns"`
}

// SessionCmd returns the session command
func SessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage chat sessions",
	}

	cmd.AddCommand(sessionNewCmd())
	cmd.AddCommand(sessionListCmd())
	cmd.AddCommand(sessionShowCmd())

	return cmd
}

func sessionNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Archive the current session and start a fresh one",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Post("/sessions/new", nil); err != nil {
				return err
			}

			fmt.Println("Started a new session")
			return nil
		},
	}
}

func sessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived sessions, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/sessions/archives")
			if err != nil {
				return err
			}

			var previews []archivePreview
			if err := json.Unmarshal(resp.Data, &previews); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(previews, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(previews) == 0 {
				fmt.Println("No archived sessions")
				return nil
			}

			for i, p := range previews {
				fmt.Printf("[%d] %s - %s (%d turns)\n", i, p.StartedAt, p.EndedAt, p.TurnCount)
				if p.FirstContent != "" {
					fmt.Printf("    first: %s\n", truncate(p.FirstContent, 80))
				}
			}
			return nil
		},
	}
}

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <index>",
		Short: "Show a full archived session by list position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/sessions/archives/" + args[0])
			if err != nil {
				return err
			}

			var archive archiveDetail
			if err := json.Unmarshal(resp.Data, &archive); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(archive, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Session %s - %s\n\n", archive.StartedAt, archive.EndedAt)
			for _, turn := range archive.Turns {
				switch turn.Role {
				case "user":
					fmt.Printf("Q: %s\n", turn.Content)
				default:
					fmt.Printf("A: %s\n\n", turn.Content)
				}
			}
			return nil
		},
	}
}
