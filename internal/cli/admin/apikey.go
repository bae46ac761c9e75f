package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/askadoc/askadoc/internal/domain"
	"github.com/askadoc/askadoc/internal/repository"
	"github.com/askadoc/askadoc/internal/service"
)

// APIKeyCmd returns the API key management command
func APIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}

	cmd.AddCommand(apiKeyCreateCmd())
	cmd.AddCommand(apiKeyListCmd())
	cmd.AddCommand(apiKeyRevokeCmd())

	return cmd
}

func apiKeyCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			userRef, _ := cmd.Flags().GetString("user")
			name, _ := cmd.Flags().GetString("name")

			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			userRepo := repository.NewUserRepository(pool)
			apiKeyRepo := repository.NewAPIKeyRepository(pool)
			authSvc := service.NewAuthService(userRepo, apiKeyRepo, &service.DefaultUUIDGenerator{})

			user, err := resolveUser(ctx, userRepo, userRef)
			if err != nil {
				return err
			}

			token, err := authSvc.CreateAPIKey(ctx, user.ID, name)
			if err != nil {
				return fmt.Errorf("failed to create API key: %w", err)
			}

			fmt.Printf("Created API key for %s:\n", user.Email)
			fmt.Printf("  Token: %s\n", token)
			fmt.Println()
			fmt.Println("Save this token now - it cannot be retrieved later.")
			return nil
		},
	}

	cmd.Flags().String("user", "", "User ID or email the key belongs to")
	cmd.Flags().String("name", "", "Descriptive name for the key")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func apiKeyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			userRef, _ := cmd.Flags().GetString("user")

			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			userRepo := repository.NewUserRepository(pool)
			apiKeyRepo := repository.NewAPIKeyRepository(pool)

			user, err := resolveUser(ctx, userRepo, userRef)
			if err != nil {
				return err
			}

			keys, err := apiKeyRepo.GetByUserID(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to list API keys: %w", err)
			}

			if len(keys) == 0 {
				fmt.Println("No API keys found")
				return nil
			}

			fmt.Printf("%-38s %-20s %-20s %s\n", "ID", "NAME", "CREATED", "STATUS")
			for _, k := range keys {
				status := "active"
				if k.IsRevoked() {
					status = "revoked"
				}
				fmt.Printf("%-38s %-20s %-20s %s\n", k.ID, k.Name, k.CreatedAt.Format("2006-01-02 15:04:05"), status)
			}
			return nil
		},
	}

	cmd.Flags().String("user", "", "User ID or email")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func apiKeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			keyID := args[0]

			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			apiKeyRepo := repository.NewAPIKeyRepository(pool)
			if err := apiKeyRepo.Revoke(ctx, keyID); err != nil {
				return fmt.Errorf("failed to revoke API key: %w", err)
			}

			fmt.Printf("Revoked API key %s\n", keyID)
			return nil
		},
	}
}

// resolveUser accepts either a user ID or an email address.
func resolveUser(ctx context.Context, userRepo *repository.UserRepository, ref string) (*domain.User, error) {
	var (
		user *domain.User
		err  error
	)
	if _, parseErr := uuid.Parse(ref); parseErr == nil {
		user, err = userRepo.GetByID(ctx, ref)
	} else {
		user, err = userRepo.GetByEmail(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("no user with ID or email '%s'", ref)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}
