package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AI2HU/gosimon/internal/logger"
)

// DefaultAlias names the connection used when no alias is given
const DefaultAlias = "default"

// ErrNotConnected is returned for aliases with no open connection
var ErrNotConnected = errors.New("not connected to database")

// Descriptor carries everything a Connector needs to open one connection.
// HostOrURI is either a host:port address or a full mongodb:// URI.
type Descriptor struct {
	HostOrURI  string
	Name       string
	Alias      string
	Username   string
	Password   string
	ReplicaSet string
}

// Connection is one open client bound to its default database
type Connection struct {
	Alias      string
	Descriptor Descriptor
	Client     *mongo.Client
	Database   *mongo.Database
}

// Ping checks the database connection
func (c *Connection) Ping(ctx context.Context) error {
	if c.Client == nil {
		return ErrNotConnected
	}
	return c.Client.Ping(ctx, nil)
}

// Disconnect closes the client
func (c *Connection) Disconnect(ctx context.Context) error {
	if c.Client != nil {
		return c.Client.Disconnect(ctx)
	}
	return nil
}

// Connector opens connections
type Connector interface {
	Connect(ctx context.Context, d Descriptor) (*Connection, error)
}

// ConnectorFunc adapts a function to Connector
type ConnectorFunc func(ctx context.Context, d Descriptor) (*Connection, error)

func (f ConnectorFunc) Connect(ctx context.Context, d Descriptor) (*Connection, error) {
	return f(ctx, d)
}

// Registry holds the open connections of one application, keyed by alias
type Registry struct {
	mu        sync.RWMutex
	connector Connector
	conns     map[string]*Connection
}

// NewRegistry creates a registry opening connections through connector
func NewRegistry(connector Connector) *Registry {
	return &Registry{
		connector: connector,
		conns:     make(map[string]*Connection),
	}
}

// Connect opens a connection for d and registers it under d.Alias (or
// DefaultAlias). A connection already registered under that alias is
// replaced and disconnected. Connector errors are returned unchanged.
func (r *Registry) Connect(ctx context.Context, d Descriptor) (*Connection, error) {
	if d.Alias == "" {
		d.Alias = DefaultAlias
	}

	conn, err := r.connector.Connect(ctx, d)
	if err != nil {
		return nil, err
	}
	conn.Alias = d.Alias
	conn.Descriptor = d

	r.mu.Lock()
	previous := r.conns[d.Alias]
	r.conns[d.Alias] = conn
	r.mu.Unlock()

	if previous != nil {
		if err := previous.Disconnect(ctx); err != nil {
			logger.Warning("Failed to disconnect replaced connection %q: %v", d.Alias, err)
		}
	}

	logger.With("alias", d.Alias, "database", d.Name).Info("Registered database connection")
	return conn, nil
}

// Get returns the connection registered under alias ("" means DefaultAlias)
func (r *Registry) Get(alias string) (*Connection, error) {
	if alias == "" {
		alias = DefaultAlias
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[alias]
	if !ok {
		return nil, fmt.Errorf("%w: alias %q", ErrNotConnected, alias)
	}
	return conn, nil
}

// Database returns the default database of the connection under alias
func (r *Registry) Database(alias string) (*mongo.Database, error) {
	conn, err := r.Get(alias)
	if err != nil {
		return nil, err
	}
	if conn.Database == nil {
		return nil, fmt.Errorf("%w: alias %q has no database", ErrNotConnected, conn.Alias)
	}
	return conn.Database, nil
}

// Aliases returns the registered aliases in sorted order
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	aliases := make([]string, 0, len(r.conns))
	for alias := range r.conns {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

func (r *Registry) snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].Alias < conns[j].Alias })
	return conns
}

// Ping checks every registered connection
func (r *Registry) Ping(ctx context.Context) error {
	var errs []error
	for _, conn := range r.snapshot() {
		if err := conn.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ping %q: %w", conn.Alias, err))
		}
	}
	return errors.Join(errs...)
}

// Close disconnects and forgets every connection
func (r *Registry) Close(ctx context.Context) error {
	conns := r.snapshot()

	r.mu.Lock()
	r.conns = make(map[string]*Connection)
	r.mu.Unlock()

	var errs []error
	for _, conn := range conns {
		if err := conn.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect %q: %w", conn.Alias, err))
		}
	}
	return errors.Join(errs...)
}
