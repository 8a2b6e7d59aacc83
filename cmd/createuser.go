/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/optima-medical/staffserver/config"
	"github.com/optima-medical/staffserver/internal/db"
	"github.com/optima-medical/staffserver/internal/store"
	"github.com/optima-medical/staffserver/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	createUserName     string
	createUserEmail    string
	createUserPassword string
	createUserRole     string
	createUserVerified bool
)

// createUserCmd seeds an account directly, bypassing the HTTP surface.
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(createUserName) == "" || strings.TrimSpace(createUserEmail) == "" || createUserPassword == "" {
			return fmt.Errorf("name, email, and password are required")
		}
		if !types.ValidRole(createUserRole) {
			return fmt.Errorf("invalid role %q", createUserRole)
		}

		cfg := config.LoadConfig()
		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = conn.Close()
		}()

		hashed, err := bcrypt.GenerateFromPassword([]byte(createUserPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		repo := store.NewUserRepository(conn)
		user, err := repo.Create(cmd.Context(), types.User{
			Name:           strings.TrimSpace(createUserName),
			Email:          strings.ToLower(strings.TrimSpace(createUserEmail)),
			HashedPassword: string(hashed),
			Role:           createUserRole,
			EmailVerified:  createUserVerified,
		})
		if err != nil {
			return fmt.Errorf("create user failed: %w", err)
		}

		fmt.Printf("created user %d (%s)\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)

	createUserCmd.Flags().StringVar(&createUserName, "name", "", "display name")
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "email address")
	createUserCmd.Flags().StringVar(&createUserPassword, "password", "", "password")
	createUserCmd.Flags().StringVar(&createUserRole, "role", types.RoleEmployee, "role (admin|employee|provider|manager)")
	createUserCmd.Flags().BoolVar(&createUserVerified, "verified", false, "mark the email as already verified")
}
