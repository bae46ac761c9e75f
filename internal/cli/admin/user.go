package admin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/askadoc/askadoc/internal/config"
	"github.com/askadoc/askadoc/internal/repository"
	"github.com/askadoc/askadoc/internal/service"
)

// UserCmd returns the user management command
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userListCmd())

	return cmd
}

func userCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			email := args[0]
			name, _ := cmd.Flags().GetString("name")

			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			userRepo := repository.NewUserRepository(pool)
			apiKeyRepo := repository.NewAPIKeyRepository(pool)
			authSvc := service.NewAuthService(userRepo, apiKeyRepo, &service.DefaultUUIDGenerator{})

			user, err := authSvc.CreateUser(ctx, email, name)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Printf("Created user:\n")
			fmt.Printf("  ID:    %s\n", user.ID)
			fmt.Printf("  Email: %s\n", user.Email)
			if user.Name != "" {
				fmt.Printf("  Name:  %s\n", user.Name)
			}
			return nil
		},
	}

	cmd.Flags().String("name", "", "Display name for the user")

	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			userRepo := repository.NewUserRepository(pool)
			users, err := userRepo.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if len(users) == 0 {
				fmt.Println("No users found")
				return nil
			}

			fmt.Printf("%-38s %-30s %s\n", "ID", "EMAIL", "CREATED")
			for _, u := range users {
				fmt.Printf("%-38s %-30s %s\n", u.ID, u.Email, u.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

// getDBPool loads config and opens a connection pool for admin commands.
func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
