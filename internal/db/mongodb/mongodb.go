package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AI2HU/gosimon/internal/db"
	"github.com/AI2HU/gosimon/internal/logger"
)

// DefaultPingTimeout bounds the ping issued right after connecting
const DefaultPingTimeout = 10 * time.Second

// Connector opens MongoDB connections for a db.Registry
type Connector struct {
	PingTimeout time.Duration
	// Configure, when set, can adjust client options before connecting
	Configure func(*options.ClientOptions)
}

// NewConnector creates a connector with default timeouts
func NewConnector() *Connector {
	return &Connector{PingTimeout: DefaultPingTimeout}
}

// ClientOptions translates a descriptor into driver options. A bare
// host:port gets the mongodb:// scheme. Credentials and the replica set
// from the descriptor only fill in what the URI leaves unset.
func ClientOptions(d db.Descriptor) *options.ClientOptions {
	uri := d.HostOrURI
	if !strings.Contains(uri, "://") {
		uri = "mongodb://" + uri
	}

	opts := options.Client().ApplyURI(uri)

	if d.Username != "" && (opts.Auth == nil || opts.Auth.Username == "") {
		opts.SetAuth(options.Credential{
			Username:    d.Username,
			Password:    d.Password,
			PasswordSet: d.Password != "",
			AuthSource:  d.Name,
		})
	}

	if d.ReplicaSet != "" && opts.ReplicaSet == nil {
		opts.SetReplicaSet(d.ReplicaSet)
	}

	return opts
}

// Connect establishes connection to MongoDB
func (c *Connector) Connect(ctx context.Context, d db.Descriptor) (*db.Connection, error) {
	clientOptions := ClientOptions(d)
	if c.Configure != nil {
		c.Configure(clientOptions)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	timeout := c.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Debug("Connected to MongoDB database %s (alias %s)", d.Name, d.Alias)

	return &db.Connection{
		Client:   client,
		Database: client.Database(d.Name),
	}, nil
}
