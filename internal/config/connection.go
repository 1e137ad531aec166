package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	DefaultPrefix = "MONGO"
	DefaultHost   = "localhost"
	DefaultPort   = 27017
)

// Application-level keys
const (
	KeyAppName  = "APP_NAME"
	KeyLogLevel = "LOG_LEVEL"
	KeyUsername = "USERNAME"
	KeyPassword = "PASSWORD"
)

var (
	// ErrMissingDatabaseName is returned when no database name can be resolved
	ErrMissingDatabaseName = errors.New("database name is required")

	// ErrMalformedURI is returned when a connection URI cannot be parsed
	ErrMalformedURI = errors.New("malformed connection URI")

	// ErrSRVLookup is returned when the SRV record of a mongodb+srv:// URI
	// cannot be resolved
	ErrSRVLookup = errors.New("SRV lookup failed")
)

// ConfigError ties a resolution failure to the setting that caused it
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ConnectionConfig is the resolved connection descriptor for one alias
type ConnectionConfig struct {
	Alias      string
	Prefix     string `validate:"required"`
	URI        string
	Host       string `validate:"required_without=URI"`
	Port       int    `validate:"required_without=URI,gte=0,lte=65535"`
	Database   string
	Username   string
	Password   string
	ReplicaSet string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Key joins a prefix and a setting name, e.g. Key("MONGO", "URI") == "MONGO_URI"
func Key(prefix, name string) string {
	return prefix + "_" + name
}

// Address returns the raw URI when one was configured, host:port otherwise
func (c ConnectionConfig) Address() string {
	if c.URI != "" {
		return c.URI
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Redacted returns Address with the password in the URI userinfo masked.
// Only the authority (up to the first "/" or "?" after the scheme) is
// considered, so "@" or ":" in the path or options are left alone.
func (c ConnectionConfig) Redacted() string {
	address := c.Address()

	scheme := strings.Index(address, "://")
	if scheme < 0 {
		return address
	}
	authStart := scheme + len("://")

	authority := address[authStart:]
	if end := strings.IndexAny(authority, "/?"); end >= 0 {
		authority = authority[:end]
	}

	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return address
	}
	colon := strings.Index(authority[:at], ":")
	if colon < 0 {
		return address
	}

	return address[:authStart+colon+1] + "****" + address[authStart+at:]
}

// Resolve builds the connection descriptor for prefix from s.
//
// With {PREFIX}_URI set, the URI is parsed and the database name, username,
// password and replica set it carries are written back into s. Without it,
// discrete settings are read and defaults are stored for absent keys only.
//
// A mongodb+srv:// URI is resolved through DNS during Resolve; lookup
// failures are reported as ErrSRVLookup rather than ErrMalformedURI.
func Resolve(appName string, s *Settings, prefix string) (ConnectionConfig, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	var (
		cfg ConnectionConfig
		err error
	)
	if s.Has(Key(prefix, "URI")) {
		cfg, err = resolveURI(s, prefix)
	} else {
		cfg, err = resolveDiscrete(appName, s, prefix)
	}
	if err != nil {
		return ConnectionConfig{}, err
	}

	if err := validate.Struct(cfg); err != nil {
		return ConnectionConfig{}, &ConfigError{Key: prefix, Err: err}
	}

	return cfg, nil
}

func resolveURI(s *Settings, prefix string) (ConnectionConfig, error) {
	key := Key(prefix, "URI")

	raw, _ := s.Get(key)
	uri, err := cast.ToStringE(raw)
	if err != nil {
		return ConnectionConfig{}, fmt.Errorf("%w %s: %w", ErrMalformedURI, key, err)
	}

	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return ConnectionConfig{}, fmt.Errorf("%w %s: %w", ErrSRVLookup, key, err)
		}
		return ConnectionConfig{}, fmt.Errorf("%w %s: %w", ErrMalformedURI, key, err)
	}

	if cs.Database == "" {
		return ConnectionConfig{}, &ConfigError{
			Key: key,
			Err: fmt.Errorf("%w: %s does not contain a database name", ErrMissingDatabaseName, key),
		}
	}

	replicaSet := cs.ReplicaSet
	if replicaSet == "" {
		if values := cs.UnknownOptions["replica_set"]; len(values) > 0 {
			replicaSet = values[len(values)-1]
		}
	}

	s.Set(Key(prefix, "DBNAME"), cs.Database)
	s.Set(Key(prefix, "USERNAME"), cs.Username)
	s.Set(Key(prefix, "PASSWORD"), cs.Password)
	s.Set(Key(prefix, "REPLICA_SET"), replicaSet)

	return ConnectionConfig{
		Prefix:     prefix,
		URI:        uri,
		Database:   cs.Database,
		Username:   cs.Username,
		Password:   cs.Password,
		ReplicaSet: replicaSet,
	}, nil
}

func resolveDiscrete(appName string, s *Settings, prefix string) (ConnectionConfig, error) {
	s.SetDefault(Key(prefix, "HOST"), DefaultHost)
	s.SetDefault(Key(prefix, "PORT"), DefaultPort)
	s.SetDefault(Key(prefix, "DBNAME"), appName)
	s.SetDefault(Key(prefix, "USERNAME"), nil)
	s.SetDefault(Key(prefix, "PASSWORD"), nil)
	s.SetDefault(Key(prefix, "REPLICA_SET"), nil)

	portKey := Key(prefix, "PORT")
	raw, _ := s.Get(portKey)
	port, err := cast.ToIntE(raw)
	if err != nil {
		return ConnectionConfig{}, &ConfigError{Key: portKey, Err: fmt.Errorf("invalid port: %w", err)}
	}

	dbKey := Key(prefix, "DBNAME")
	database := s.String(dbKey)
	if database == "" {
		return ConnectionConfig{}, &ConfigError{Key: dbKey, Err: ErrMissingDatabaseName}
	}

	return ConnectionConfig{
		Prefix:     prefix,
		Host:       s.String(Key(prefix, "HOST")),
		Port:       port,
		Database:   database,
		Username:   s.String(Key(prefix, "USERNAME")),
		Password:   s.String(Key(prefix, "PASSWORD")),
		ReplicaSet: s.String(Key(prefix, "REPLICA_SET")),
	}, nil
}
