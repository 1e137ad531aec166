package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AI2HU/gosimon/internal/api"
	"github.com/AI2HU/gosimon/internal/db/mongodb"
	"github.com/AI2HU/gosimon/internal/logger"
	"github.com/AI2HU/gosimon/internal/simon"
)

var (
	serveHost string
	servePort string
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the example entries/users API server",
	Long: `Connect every configured prefix and serve the example application:
- Entries (list, get by ObjectId, create, search)
- Users (get by ObjectId, create, login)
- Health check pinging every connection

Write endpoints require USERNAME and PASSWORD to be configured and use
HTTP basic auth.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "5000", "Port to run the API server on")
	serveCmd.Flags().StringVarP(&serveHost, "host", "H", "127.0.0.1", "Host to bind the API server to")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	app := simon.NewApp(appName(settings), settings, mongodb.NewConnector())
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			logger.Error("Failed to close connections: %v", err)
		}
	}()

	ext := simon.New()
	for i, prefix := range prefixes {
		if _, err := ext.InitApp(ctx, app, simon.WithPrefix(prefix), simon.WithAlias(aliasFor(i, prefix))); err != nil {
			return fmt.Errorf("failed to connect %s: %w", prefix, err)
		}
	}

	entries, users, err := api.NewMongoStores(ctx, app)
	if err != nil {
		return fmt.Errorf("failed to prepare collections: %w", err)
	}

	server := api.NewServer(app, entries, users, api.DefaultOptions())
	address := net.JoinHostPort(serveHost, servePort)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Println(FormatHeader("🚀 Starting " + app.Name))
	fmt.Println(FormatLabelValue("URL:", "http://"+address+"/api/v1"))
	fmt.Println()
	fmt.Println(FormatTitle("📚 Available Endpoints:"))
	fmt.Println("    GET    /api/v1/entries           - List entries")
	fmt.Println("    GET    /api/v1/entries/:id       - Get entry by ObjectId")
	fmt.Println("    POST   /api/v1/entries           - Create entry (basic auth)")
	fmt.Println("    GET    /api/v1/search?q=         - Search entries")
	fmt.Println("    GET    /api/v1/users/:id         - Get user by ObjectId")
	fmt.Println("    POST   /api/v1/users             - Create user (basic auth)")
	fmt.Println("    POST   /api/v1/login             - Check user credentials")
	fmt.Println("    GET    /api/v1/health            - Health check")
	fmt.Println()
	fmt.Println(FormatDim("Press Ctrl+C to stop the server"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println("\n🛑 Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
