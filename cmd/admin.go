package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-foodshare/config"
	"go-foodshare/models"
	"go-foodshare/store"
	"go-foodshare/utils"
	"go-foodshare/workflow"

	"github.com/spf13/cobra"
)

var adminFlags struct {
	email    string
	password string
	name     string
}

// adminCmd represents the admin command.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an approved administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.ToLower(strings.TrimSpace(adminFlags.email))
		if email == "" || adminFlags.password == "" {
			return errors.New("--email and --password are required")
		}

		cfg := config.LoadConfig()
		s, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close(cmd.Context())

		hashed, err := utils.HashPassword(adminFlags.password)
		if err != nil {
			return err
		}
		now := time.Now()
		user := models.User{
			Role:        models.RoleAdmin,
			EnglishName: adminFlags.name,
			Email:       email,
			Password:    hashed,
			Flags:       workflow.Flags{Approved: true, Status: workflow.StateApproved.String()},
			CreatedAt:   now,
			ModifiedAt:  now,
		}
		id, err := s.Create(cmd.Context(), store.Users, user)
		if errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("a user with email %s already exists", email)
		}
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", email, id.Hex())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCreateCmd.Flags().StringVar(&adminFlags.email, "email", "", "administrator email")
	adminCreateCmd.Flags().StringVar(&adminFlags.password, "password", "", "administrator password")
	adminCreateCmd.Flags().StringVar(&adminFlags.name, "name", "Administrator", "display name")
}
