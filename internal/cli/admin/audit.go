package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askadoc/askadoc/internal/pagination"
	"github.com/askadoc/askadoc/internal/repository"
)

// AuditCmd returns the question audit log command
func AuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the question audit log",
	}

	cmd.AddCommand(auditListCmd())

	return cmd
}

func auditListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List logged questions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			limit, _ := cmd.Flags().GetInt("limit")
			cursorFlag, _ := cmd.Flags().GetString("cursor")

			cursor, err := pagination.Decode(cursorFlag)
			if err != nil {
				return fmt.Errorf("invalid --cursor value: %w", err)
			}

			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			logRepo := repository.NewQuestionLogRepository(pool)
			page, err := logRepo.ListPage(ctx, cursor, limit)
			if err != nil {
				return fmt.Errorf("failed to list question log: %w", err)
			}

			if len(page.Items) == 0 {
				fmt.Println("No logged questions")
				return nil
			}

			fmt.Printf("%-20s %-38s %-10s %6s %5s  %s\n", "TIME", "USER", "SCOPE", "CHUNKS", "OVR", "QUESTION")
			for _, rec := range page.Items {
				overridden := ""
				if rec.Overridden {
					overridden = "yes"
				}
				fmt.Printf("%-20s %-38s %-10s %6d %5s  %s\n",
					rec.CreatedAt.Format("2006-01-02 15:04:05"),
					rec.UserID,
					rec.ScopeMode,
					rec.ChunkCount,
					overridden,
					truncateQuestion(rec.Question, 60),
				)
			}

			if page.HasMore {
				fmt.Printf("\nMore entries available. Next page:\n  askadocd audit list --cursor %s\n", page.NextCursor)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 50, "Maximum number of entries per page")
	cmd.Flags().String("cursor", "", "Cursor from a previous page")

	return cmd
}

func truncateQuestion(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
