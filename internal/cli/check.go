package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AI2HU/gosimon/internal/config"
	"github.com/AI2HU/gosimon/internal/db"
	"github.com/AI2HU/gosimon/internal/db/mongodb"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve the connection settings and ping every database",
	Long: `Resolve each --prefix from the config file and environment, print the
effective settings with the password masked, then connect and ping.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", mongodb.DefaultPingTimeout, "time allowed for each connection")
}

func runCheck(cmd *cobra.Command, args []string) error {
	name := appName(settings)
	connector := mongodb.NewConnector()
	connector.PingTimeout = checkTimeout

	registry := db.NewRegistry(connector)
	defer registry.Close(context.Background())

	fmt.Println(FormatHeader("🔌 Checking connections for " + name))
	fmt.Println()

	var failed int
	for i, prefix := range prefixes {
		fmt.Println(FormatTitle(prefix))

		cfg, err := config.Resolve(name, settings, prefix)
		if err != nil {
			fmt.Printf("  %s %v\n\n", FormatError("❌ Invalid settings:"), err)
			failed++
			continue
		}
		printConnection(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
		_, err = registry.Connect(ctx, db.Descriptor{
			HostOrURI:  cfg.Address(),
			Name:       cfg.Database,
			Alias:      aliasFor(i, prefix),
			Username:   cfg.Username,
			Password:   cfg.Password,
			ReplicaSet: cfg.ReplicaSet,
		})
		cancel()
		if err != nil {
			fmt.Printf("  %s %v\n\n", FormatError("❌ Connection failed:"), err)
			failed++
			continue
		}

		fmt.Printf("  %s\n\n", FormatSuccess("✅ Connection successful!"))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d connections failed", failed, len(prefixes))
	}
	return nil
}

func printConnection(cfg config.ConnectionConfig) {
	fmt.Printf("  %s\n", FormatLabelValue("Address: ", cfg.Redacted()))
	fmt.Printf("  %s\n", FormatLabelValue("Database:", cfg.Database))
	if cfg.Username != "" {
		fmt.Printf("  %s\n", FormatLabelValue("Username:", cfg.Username))
		fmt.Printf("  %s\n", FormatLabelValue("Password:", maskSensitiveData(cfg.Password, "*")))
	}
	if cfg.ReplicaSet != "" {
		fmt.Printf("  %s\n", FormatLabelValue("Replica: ", cfg.ReplicaSet))
	}
}
