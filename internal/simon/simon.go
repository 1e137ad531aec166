// Package simon connects a gin application to MongoDB at startup. It
// resolves connection settings from the application's configuration,
// opens the connection through the application's registry and registers
// the objectid path converter.
package simon

import (
	"context"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/gosimon/internal/config"
	"github.com/AI2HU/gosimon/internal/db"
	"github.com/AI2HU/gosimon/internal/logger"
	"github.com/AI2HU/gosimon/internal/routing"
)

// ExtensionName is the key the extension registers itself under in App.Extensions
const ExtensionName = "simon"

// App is the host application: its name, configuration mapping, router,
// converter registry and connection registry.
type App struct {
	Name        string
	Settings    *config.Settings
	Engine      *gin.Engine
	Converters  *routing.Converters
	Connections *db.Registry
	Extensions  map[string]interface{}
}

// NewApp creates an application whose connections are opened by connector
func NewApp(name string, settings *config.Settings, connector db.Connector) *App {
	if settings == nil {
		settings = config.NewSettings()
	}
	return &App{
		Name:        name,
		Settings:    settings,
		Engine:      gin.New(),
		Converters:  routing.NewConverters(),
		Connections: db.NewRegistry(connector),
		Extensions:  make(map[string]interface{}),
	}
}

// Handle registers a route whose pattern may contain typed segments such as <objectid:id>
func (a *App) Handle(method, pattern string, handlers ...gin.HandlerFunc) gin.IRoutes {
	return a.Converters.Handle(a.Engine, method, pattern, handlers...)
}

// URLFor builds a path for pattern using the app's converters
func (a *App) URLFor(pattern string, values map[string]interface{}) (string, error) {
	return a.Converters.URLFor(pattern, values)
}

// Close disconnects every connection opened for the app
func (a *App) Close(ctx context.Context) error {
	return a.Connections.Close(ctx)
}

type options struct {
	prefix string
	alias  string
}

// Option configures one InitApp call
type Option func(*options)

// WithPrefix reads settings from {prefix}_URI, {prefix}_HOST, ... instead of MONGO_*
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithAlias registers the connection under alias instead of the default one
func WithAlias(alias string) Option {
	return func(o *options) {
		o.alias = alias
	}
}

// Simon binds MongoDB connections to applications
type Simon struct {
	mu      sync.Mutex
	configs map[string]config.ConnectionConfig
}

// New creates an extension not yet bound to any application
func New() *Simon {
	return &Simon{configs: make(map[string]config.ConnectionConfig)}
}

// Init is New followed by InitApp
func Init(ctx context.Context, app *App, opts ...Option) (*Simon, error) {
	s := New()
	if _, err := s.InitApp(ctx, app, opts...); err != nil {
		return nil, err
	}
	return s, nil
}

// InitApp registers the objectid converter on app, resolves the connection
// settings for the configured prefix and opens the connection. Resolution
// and connector errors are returned unchanged.
func (s *Simon) InitApp(ctx context.Context, app *App, opts ...Option) (*db.Connection, error) {
	o := options{prefix: config.DefaultPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	if app.Extensions == nil {
		app.Extensions = make(map[string]interface{})
	}
	app.Extensions[ExtensionName] = s

	app.Converters.Register(routing.ObjectIDName, routing.ObjectIDConverter{})

	cfg, err := config.Resolve(app.Name, app.Settings, o.prefix)
	if err != nil {
		return nil, err
	}
	cfg.Alias = o.alias

	log := logger.With("prefix", cfg.Prefix, "database", cfg.Database)
	log.Info("Connecting to %s", cfg.Redacted())

	conn, err := app.Connections.Connect(ctx, db.Descriptor{
		HostOrURI:  cfg.Address(),
		Name:       cfg.Database,
		Alias:      cfg.Alias,
		Username:   cfg.Username,
		Password:   cfg.Password,
		ReplicaSet: cfg.ReplicaSet,
	})
	if err != nil {
		return nil, err
	}

	cfg.Alias = conn.Alias
	s.mu.Lock()
	s.configs[conn.Alias] = cfg
	s.mu.Unlock()

	return conn, nil
}

// Config returns the resolved settings of the connection under alias
func (s *Simon) Config(alias string) (config.ConnectionConfig, error) {
	if alias == "" {
		alias = db.DefaultAlias
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[alias]
	if !ok {
		return config.ConnectionConfig{}, fmt.Errorf("%w: alias %q", db.ErrNotConnected, alias)
	}
	return cfg, nil
}

// FromApp returns the extension registered on app, if any
func FromApp(app *App) (*Simon, bool) {
	s, ok := app.Extensions[ExtensionName].(*Simon)
	return s, ok
}
