package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"rov_inventory_go/config"
	"rov_inventory_go/services"
	"rov_inventory_go/services/backend"
	"rov_inventory_go/services/i18n"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if !cfg.HasAdminBackend() {
		log.Fatal("SUPABASE_SERVICE_ROLE_KEY and the backend URL are required")
	}
	if err := i18n.Load(); err != nil {
		log.Fatalf("Failed to load translations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label + ": ")
		v, _ := reader.ReadString('\n')
		return strings.TrimSpace(v)
	}

	fmt.Println("=== Create New User ===")
	fmt.Println()

	in := services.NewUser{
		Name:           prompt("Name"),
		Email:          prompt("Email"),
		NationalIDBody: prompt("RUT (without check digit)"),
		Role:           prompt("Role (admin, oficina, centro)"),
	}
	if in.Role == services.RoleCentro {
		in.CenterID = prompt("Center ID (blank to skip)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	admin := backend.NewAdmin(cfg.BackendURL, cfg.BackendServiceRoleKey)
	result, err := services.CreateUser(ctx, admin, in)
	if err != nil {
		log.Fatalf("Failed to create user: %s", services.ClassifyError(err).Message("es"))
	}

	fmt.Println()
	fmt.Println("✓ User created successfully!")
	fmt.Printf("  ID: %s\n", result.UserID)
	fmt.Printf("  Email: %s\n", strings.ToLower(in.Email))
	if w := result.Warning("es"); w != "" {
		fmt.Printf("  Warning: %s\n", w)
	}
	fmt.Println()
	fmt.Printf("The user can now log in at %s/login with the RUT body as initial password.\n", cfg.AppURL)
}
