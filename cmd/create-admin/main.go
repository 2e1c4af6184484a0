package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"campusdate/backend/internal/auth"
	"campusdate/backend/internal/config"
	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage"
	"campusdate/backend/internal/storage/postgres"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: create-admin <email> <password> [super|admin]")
		os.Exit(1)
	}

	email := strings.ToLower(strings.TrimSpace(os.Args[1]))
	password := os.Args[2]
	role := domain.RoleAdmin
	if len(os.Args) >= 4 && os.Args[3] == "super" {
		role = domain.RoleSuper
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		fmt.Println("CAMPUSDATE_DATABASE_DSN is required: admins created in memory storage are lost on exit")
		os.Exit(1)
	}

	if err := domain.ValidatePassword(password); err != nil {
		fmt.Printf("Invalid password: %v\n", err)
		os.Exit(1)
	}

	opts := postgres.Options{AutoMigrate: true}
	var store *postgres.Store
	if cfg.Database.Type == "mysql" {
		store, err = postgres.NewMySQLStore(cfg.Database.DSN, opts)
	} else {
		store, err = postgres.NewStore(cfg.Database.DSN, opts)
	}
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		fmt.Printf("Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	// 已存在的账号直接提升角色
	user, err := store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		user.Role = role
		user.IsActive = true
		user.PasswordHash = hashedPassword
		err = store.UpdateUser(ctx, user)
	case errors.Is(err, storage.ErrUserNotFound):
		user = &domain.User{
			Email:        email,
			PasswordHash: hashedPassword,
			Role:         role,
			IsActive:     true,
			IsVerified:   true,
		}
		err = store.CreateUser(ctx, user)
	}
	if err != nil {
		fmt.Printf("Failed to save admin user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Admin user saved successfully!\n")
	fmt.Printf("  ID:    %s\n", user.ID)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  Role:  %s\n", user.Role)
}
