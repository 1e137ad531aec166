// Package routing adds typed path segments to gin routes. A rule such as
// "/entries/<objectid:id>" is compiled to the gin path "/entries/:id" plus a
// middleware that converts the raw segment with the named Converter.
package routing

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AI2HU/gosimon/internal/objectid"
)

// ObjectIDName is the name the ObjectID converter is registered under
const ObjectIDName = "objectid"

// ErrUnknownConverter is returned when a rule names an unregistered converter
var ErrUnknownConverter = errors.New("unknown converter")

// ValidationError means a path segment does not match its converter, so
// the route does not match either.
type ValidationError struct {
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid path segment %q: %v", e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Converter maps between a raw path segment and a typed value
type Converter interface {
	// ToValue returns a *ValidationError when raw is not acceptable
	ToValue(raw string) (interface{}, error)
	ToURL(value interface{}) (string, error)
}

// ObjectIDConverter converts path segments to primitive.ObjectID
type ObjectIDConverter struct{}

func (ObjectIDConverter) ToValue(raw string) (interface{}, error) {
	id, err := objectid.Parse(raw)
	if err != nil {
		return nil, &ValidationError{Value: raw, Err: err}
	}
	return id, nil
}

func (ObjectIDConverter) ToURL(value interface{}) (string, error) {
	if id, ok := value.(primitive.ObjectID); ok {
		return objectid.Format(id), nil
	}
	id, err := objectid.Parse(value)
	if err != nil {
		return "", err
	}
	return objectid.Format(id), nil
}

// Converters is a named converter registry owned by one application
type Converters struct {
	mu sync.RWMutex
	m  map[string]Converter
}

// NewConverters returns an empty registry
func NewConverters() *Converters {
	return &Converters{m: make(map[string]Converter)}
}

// Register adds or replaces the converter for name
func (cv *Converters) Register(name string, c Converter) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	cv.m[name] = c
}

// Lookup returns the converter registered for name
func (cv *Converters) Lookup(name string) (Converter, bool) {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	c, ok := cv.m[name]
	return c, ok
}

// Names returns the registered converter names in sorted order
func (cv *Converters) Names() []string {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	names := make([]string, 0, len(cv.m))
	for name := range cv.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
