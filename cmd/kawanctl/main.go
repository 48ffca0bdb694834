package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"kawanumkm/internal/config"
	"kawanumkm/internal/database"
	"kawanumkm/internal/logger"
	"kawanumkm/internal/security"
	"kawanumkm/internal/service"
)

func main() {
	// Define subcommands
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)
	demoCmd := flag.NewFlagSet("demo", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Admin flags
	adminEmail := adminCmd.String("email", "", "Administrator email (required)")
	adminName := adminCmd.String("name", "Administrator", "Administrator display name")
	adminPassword := adminCmd.String("password", "", "Administrator password (default: $ADMIN_PASSWORD)")

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt for -clear")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "admin":
		err = adminCmd.Parse(os.Args[2:])
	case "demo":
		err = demoCmd.Parse(os.Args[2:])
	case "export":
		err = exportCmd.Parse(os.Args[2:])
	case "import":
		err = importCmd.Parse(os.Args[2:])
		if err == nil && *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		os.Exit(1)
	}

	cfg := config.Load()
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Debug: cfg.Debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitializeWithConfig(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	switch os.Args[1] {
	case "admin":
		password := *adminPassword
		if password == "" {
			password = os.Getenv("ADMIN_PASSWORD")
		}
		err = handleAdmin(ctx, cfg, db, log, *adminName, *adminEmail, password)
	case "demo":
		err = handleDemo(ctx, cfg, db, log)
	case "export":
		err = handleExport(ctx, service.NewBackupService(db, log), log, *exportOutput)
	case "import":
		err = handleImport(ctx, service.NewBackupService(db, log), log, *importInput, *importClear, *importYes)
	}
	if err != nil {
		log.Fatal(os.Args[1]+" failed", zap.Error(err))
	}
}

func newHasher(cfg *config.Config) (*security.PasswordHasher, error) {
	return security.NewPasswordHasher(cfg.BcryptCost)
}

func handleAdmin(ctx context.Context, cfg *config.Config, db *database.DB, log *zap.Logger, name, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("-email and -password (or ADMIN_PASSWORD) are required")
	}
	hasher, err := newHasher(cfg)
	if err != nil {
		return err
	}
	tokens, err := security.NewTokenIssuer(cfg.JWTSecret, cfg.SessionDuration, security.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return err
	}

	account, created, err := service.NewAuthService(db, hasher, tokens, log).EnsureAdmin(ctx, name, email, password)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Administrator %s created (id %d)\n", account.Email, account.ID)
	} else {
		fmt.Printf("Existing account %s promoted to administrator (id %d)\n", account.Email, account.ID)
	}
	return nil
}

func handleDemo(ctx context.Context, cfg *config.Config, db *database.DB, log *zap.Logger) error {
	hasher, err := newHasher(cfg)
	if err != nil {
		return err
	}
	seeded, err := service.NewSeedService(db, hasher, log).SeedDemo(ctx)
	if err != nil {
		return err
	}
	if !seeded {
		fmt.Println("Demo data already present, nothing to do")
		return nil
	}
	fmt.Printf("Demo data created. Accounts user@demo.com, umkm@demo.com and admin@demo.com use password %q\n", service.DemoPassword)
	return nil
}

func handleExport(ctx context.Context, backupService *service.BackupService, log *zap.Logger, outputPath string) error {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}

	log.Info("exporting database", zap.String("path", outputPath))
	if _, err := backupService.Export(ctx, file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}

	fileInfo, err := os.Stat(outputPath)
	if err == nil {
		fmt.Printf("Export complete! File size: %.2f MB\n", float64(fileInfo.Size())/1024/1024)
	}
	return nil
}

func handleImport(ctx context.Context, backupService *service.BackupService, log *zap.Logger, inputPath string, clearData, assumeYes bool) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	if clearData && !assumeYes {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		confirmation, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(confirmation) != "yes" {
			fmt.Println("Import cancelled")
			return nil
		}
	}

	log.Info("importing database", zap.String("path", inputPath), zap.Bool("clear", clearData))
	backup, err := backupService.Import(ctx, file, clearData)
	if err != nil {
		return err
	}

	fmt.Printf("Import complete! %d accounts, %d listings, %d reviews, %d favorites\n",
		len(backup.Accounts), len(backup.Businesses), len(backup.Reviews), len(backup.Favorites))
	return nil
}

func printUsage() {
	fmt.Println("Kawan UMKM Administration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  kawanctl admin [options]     Create or promote an administrator")
	fmt.Println("  kawanctl demo                Load demo accounts and listings")
	fmt.Println("  kawanctl export [options]    Export database to JSON file")
	fmt.Println("  kawanctl import [options]    Import database from JSON file")
	fmt.Println()
	fmt.Println("Admin Options:")
	fmt.Println("  -email <email>       Administrator email (required)")
	fmt.Println("  -name <name>         Display name (default: Administrator)")
	fmt.Println("  -password <pass>     Password (default: $ADMIN_PASSWORD)")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println("  -yes              Do not ask for confirmation when clearing")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  kawanctl admin -email admin@kawanumkm.id -password 'rahasia123'")
	fmt.Println("  kawanctl export -output backups/kawan.json")
	fmt.Println("  kawanctl import -input backups/kawan.json -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./kawan_umkm.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
