package routing

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/gosimon/internal/models"
)

var placeholder = regexp.MustCompile(`^<(?:([a-zA-Z_][a-zA-Z0-9_]*):)?([a-zA-Z_][a-zA-Z0-9_]*)>$`)

type segment struct {
	literal   string
	param     string
	converter string
}

// Rule is a compiled route pattern
type Rule struct {
	Pattern string
	// Path is the equivalent gin path, e.g. "/entries/:id"
	Path     string
	segments []segment
}

// Compile parses a pattern whose dynamic segments are written as <param>
// or <converter:param>. Every named converter must already be registered.
func (cv *Converters) Compile(pattern string) (*Rule, error) {
	parts := strings.Split(pattern, "/")
	rule := &Rule{Pattern: pattern, segments: make([]segment, 0, len(parts))}
	ginParts := make([]string, 0, len(parts))
	seen := make(map[string]bool)

	for _, part := range parts {
		if !strings.HasPrefix(part, "<") {
			rule.segments = append(rule.segments, segment{literal: part})
			ginParts = append(ginParts, part)
			continue
		}

		m := placeholder.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("invalid segment %q in rule %q", part, pattern)
		}
		name, param := m[1], m[2]
		if seen[param] {
			return nil, fmt.Errorf("duplicate parameter %q in rule %q", param, pattern)
		}
		seen[param] = true

		if name != "" {
			if _, ok := cv.Lookup(name); !ok {
				return nil, fmt.Errorf("%w %q in rule %q", ErrUnknownConverter, name, pattern)
			}
		}

		rule.segments = append(rule.segments, segment{param: param, converter: name})
		ginParts = append(ginParts, ":"+param)
	}

	rule.Path = strings.Join(ginParts, "/")
	return rule, nil
}

// Handle registers handlers for pattern on r, converting typed segments
// before the handlers run. It panics on an invalid pattern, as gin does.
func (cv *Converters) Handle(r gin.IRoutes, method, pattern string, handlers ...gin.HandlerFunc) gin.IRoutes {
	rule, err := cv.Compile(pattern)
	if err != nil {
		panic(err)
	}

	chain := make([]gin.HandlerFunc, 0, len(rule.segments)+len(handlers))
	for _, seg := range rule.segments {
		if seg.converter != "" {
			chain = append(chain, cv.Bind(seg.param, seg.converter))
		}
	}
	chain = append(chain, handlers...)

	return r.Handle(method, rule.Path, chain...)
}

// Bind returns middleware converting the path parameter param with the
// converter registered as name and storing the result under param in the
// gin context. A segment the converter rejects gets a 404.
func (cv *Converters) Bind(param, name string) gin.HandlerFunc {
	conv, ok := cv.Lookup(name)
	if !ok {
		panic(fmt.Errorf("%w %q", ErrUnknownConverter, name))
	}

	return func(c *gin.Context) {
		value, err := conv.ToValue(c.Param(param))
		if err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusNotFound, models.APIResponse{
					Success: false,
					Error:   http.StatusText(http.StatusNotFound),
				})
				return
			}
			_ = c.AbortWithError(http.StatusInternalServerError, err)
			return
		}

		c.Set(param, value)
		c.Next()
	}
}

// URLFor builds a path for pattern. Values for dynamic segments go through
// their converter; leftover values become the query string.
func (cv *Converters) URLFor(pattern string, values map[string]interface{}) (string, error) {
	rule, err := cv.Compile(pattern)
	if err != nil {
		return "", err
	}

	used := make(map[string]bool)
	parts := make([]string, 0, len(rule.segments))
	for _, seg := range rule.segments {
		if seg.param == "" {
			parts = append(parts, seg.literal)
			continue
		}

		v, ok := values[seg.param]
		if !ok {
			return "", fmt.Errorf("missing value for %q in rule %q", seg.param, pattern)
		}
		used[seg.param] = true

		raw := fmt.Sprint(v)
		if seg.converter != "" {
			conv, _ := cv.Lookup(seg.converter)
			if raw, err = conv.ToURL(v); err != nil {
				return "", fmt.Errorf("failed to format %q: %w", seg.param, err)
			}
		}
		parts = append(parts, url.PathEscape(raw))
	}

	path := strings.Join(parts, "/")

	extra := make([]string, 0, len(values))
	for k := range values {
		if !used[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return path, nil
	}

	sort.Strings(extra)
	query := url.Values{}
	for _, k := range extra {
		query.Set(k, fmt.Sprint(values[k]))
	}
	return path + "?" + query.Encode(), nil
}

// Value returns the converted value stored for param by Bind
func Value[T any](c *gin.Context, param string) (T, bool) {
	var zero T
	v, ok := c.Get(param)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
