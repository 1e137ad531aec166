package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AI2HU/gosimon/internal/config"
	"github.com/AI2HU/gosimon/internal/db"
	"github.com/AI2HU/gosimon/internal/db/mongodb"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gosimon configuration",
	Long:  `Interactive wizard to write the MONGO_* settings and the example app credentials.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	p := newPrompter(os.Stdin, os.Stdout)

	fmt.Println(FormatHeader("🚀 Welcome to Gosimon Setup"))
	fmt.Println("==========================")
	fmt.Println()

	path, _ := configPath()
	cfg := config.DefaultConfig()
	if config.Exists(path) {
		fmt.Printf("Configuration file already exists at: %s\n", path)
		confirmed, err := p.yesNo("Do you want to overwrite it? (y/N): ")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Setup cancelled.")
			return nil
		}
		// start from the existing values
		if existing, err := config.Load(path); err == nil {
			cfg = existing
		}
	}

	var err error
	cfg.AppName, err = p.optional(fmt.Sprintf("Application name [%s]: ", cfg.AppName), cfg.AppName)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(FormatTitle("📊 Database Configuration"))
	fmt.Println("--------------------------")

	useURI, err := p.yesNo("Configure with a connection URI? (y/N): ")
	if err != nil {
		return err
	}

	if useURI {
		cfg.URI, err = p.ask("MongoDB URI (must name the database): ", validateURI)
		if err != nil {
			return err
		}
		cfg.Host, cfg.Port, cfg.Database = "", 0, ""
	} else {
		cfg.URI = ""
		if err := promptDiscrete(p, cfg); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println(FormatTitle("🔐 Example App Credentials"))
	fmt.Println("--------------------------")
	fmt.Println(FormatDim("Leave empty to disable the write endpoints."))
	cfg.AdminUsername, err = p.optional(fmt.Sprintf("Admin username [%s]: ", cfg.AdminUsername), cfg.AdminUsername)
	if err != nil {
		return err
	}
	if cfg.AdminUsername != "" {
		cfg.AdminPassword, err = p.required("Admin password: ")
		if err != nil {
			return err
		}
	}

	resolved, err := config.Resolve(cfg.AppName, cfg.Settings(), config.DefaultPrefix)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	test, err := p.yesNo("\nTest the database connection now? (y/N): ")
	if err != nil {
		return err
	}
	if test {
		if err := testConnection(cmd.Context(), resolved); err != nil {
			fmt.Printf("%s %v\n", FormatError("❌ Failed to connect to database:"), err)
			fmt.Println("\nPlease check your database configuration and try again.")
			return err
		}
		fmt.Println(FormatSuccess("✅ Database connection successful!"))
	}

	fmt.Println("\n💾 Saving configuration...")
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("✅ Configuration saved to: %s\n", path)

	fmt.Println()
	fmt.Println(FormatTitle("📋 Configuration Summary"))
	fmt.Println("========================")
	printConnection(resolved)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Verify the connection: gosimon check")
	fmt.Println("  2. Start the example API: gosimon serve")

	return nil
}

func promptDiscrete(p *prompter, cfg *config.Config) error {
	var err error
	host := cfg.Host
	if host == "" {
		host = config.DefaultHost
	}
	cfg.Host, err = p.optional(fmt.Sprintf("Host [%s]: ", host), host)
	if err != nil {
		return err
	}

	port := cfg.Port
	if port == 0 {
		port = config.DefaultPort
	}
	portStr, err := p.ask(fmt.Sprintf("Port [%d]: ", port), func(input string) (string, error) {
		if input == "" {
			return strconv.Itoa(port), nil
		}
		return validatePort(input)
	})
	if err != nil {
		return err
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	dbName := cfg.Database
	if dbName == "" {
		dbName = cfg.AppName
	}
	cfg.Database, err = p.optional(fmt.Sprintf("Database name [%s]: ", dbName), dbName)
	if err != nil {
		return err
	}

	cfg.Username, err = p.optional(fmt.Sprintf("Database username [%s]: ", cfg.Username), cfg.Username)
	if err != nil {
		return err
	}
	if cfg.Username != "" {
		cfg.Password, err = p.required("Database password: ")
		if err != nil {
			return err
		}
	} else {
		cfg.Password = ""
	}
	return nil
}

func testConnection(ctx context.Context, cfg config.ConnectionConfig) error {
	fmt.Println("\n🔌 Testing database connection...")

	registry := db.NewRegistry(mongodb.NewConnector())
	defer registry.Close(context.Background())

	_, err := registry.Connect(ctx, db.Descriptor{
		HostOrURI:  cfg.Address(),
		Name:       cfg.Database,
		Username:   cfg.Username,
		Password:   cfg.Password,
		ReplicaSet: cfg.ReplicaSet,
	})
	return err
}
