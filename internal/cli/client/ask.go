package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type askResponse struct {
	Answer      string   `json:"answer"`
	UsedContext []string `json:"used_context"`
}

type historyPair struct {
	Question string `json:"user"`
	Answer   string `json:"assistant"`
}

// AskCmd returns the ask command
func AskCmd() *cobra.Command {
	var scope string
	var docs []string
	var showContext bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your documents",
		Long:  "Answers strictly from your uploaded documents. Use --doc to restrict the search scope.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			body := map[string]interface{}{"question": question}
			if len(docs) == 1 && scope == "" {
				body["scope"] = "document"
				body["documents"] = docs
			} else if len(docs) > 1 && scope == "" {
				body["scope"] = "custom"
				body["documents"] = docs
			} else if scope != "" {
				body["scope"] = scope
				if len(docs) > 0 {
					body["documents"] = docs
				}
			}

			resp, err := api.Post("/chat", body)
			if err != nil {
				return err
			}

			var answer askResponse
			if err := json.Unmarshal(resp.Data, &answer); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(answer, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Println(answer.Answer)
			if showContext && len(answer.UsedContext) > 0 {
				fmt.Println()
				fmt.Println("Context used:")
				for i, chunk := range answer.UsedContext {
					fmt.Printf("  [%d] %s\n", i+1, truncate(chunk, 120))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "Search scope: global, document, or custom (default: global)")
	cmd.Flags().StringSliceVar(&docs, "doc", nil, "Restrict search to the named document(s)")
	cmd.Flags().BoolVar(&showContext, "show-context", false, "Print the document chunks the answer was grounded on")

	return cmd
}

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the current session's question/answer history",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/history")
			if err != nil {
				return err
			}

			var pairs []historyPair
			if err := json.Unmarshal(resp.Data, &pairs); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				data, _ := json.MarshalIndent(pairs, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(pairs) == 0 {
				fmt.Println("No questions asked yet in this session")
				return nil
			}

			for _, p := range pairs {
				fmt.Printf("Q: %s\n", p.Question)
				fmt.Printf("A: %s\n\n", p.Answer)
			}
			return nil
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
