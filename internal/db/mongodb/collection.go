package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AI2HU/gosimon/internal/lookup"
)

// ErrInvalidCriteria is returned when criteria cannot be turned into a filter
var ErrInvalidCriteria = errors.New("invalid criteria")

// Collection is a typed view over one MongoDB collection
type Collection[T any] struct {
	coll *mongo.Collection
	sort bson.D
}

// NewCollection binds T to the named collection. sort orders All and Search.
func NewCollection[T any](database *mongo.Database, name string, sort bson.D) *Collection[T] {
	return &Collection[T]{
		coll: database.Collection(name),
		sort: sort,
	}
}

// Filter builds a query filter from criteria. Accepted forms are bson.E,
// bson.D, bson.M, a primitive.ObjectID (matched against _id) and
// alternating field/value pairs. The field "id" means "_id".
func Filter(criteria ...interface{}) (bson.D, error) {
	filter := bson.D{}

	for i := 0; i < len(criteria); i++ {
		switch v := criteria[i].(type) {
		case bson.E:
			filter = append(filter, v)
		case bson.D:
			filter = append(filter, v...)
		case bson.M:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				filter = append(filter, bson.E{Key: fieldName(k), Value: v[k]})
			}
		case primitive.ObjectID:
			filter = append(filter, bson.E{Key: "_id", Value: v})
		case string:
			if i+1 >= len(criteria) {
				return nil, fmt.Errorf("%w: field %q has no value", ErrInvalidCriteria, v)
			}
			filter = append(filter, bson.E{Key: fieldName(v), Value: criteria[i+1]})
			i++
		default:
			return nil, fmt.Errorf("%w: unsupported criterion %T", ErrInvalidCriteria, v)
		}
	}

	return filter, nil
}

func fieldName(name string) string {
	if name == "id" {
		return "_id"
	}
	return name
}

// Get fetches at most two matching documents to tell a single match apart
// from none or several.
func (c *Collection[T]) Get(ctx context.Context, criteria ...interface{}) (lookup.Result[T], error) {
	filter, err := Filter(criteria...)
	if err != nil {
		return lookup.Result[T]{}, err
	}

	cursor, err := c.coll.Find(ctx, filter, options.Find().SetLimit(2))
	if err != nil {
		return lookup.Result[T]{}, err
	}
	defer cursor.Close(ctx)

	var docs []T
	if err := cursor.All(ctx, &docs); err != nil {
		return lookup.Result[T]{}, err
	}

	return classify(docs), nil
}

func classify[T any](docs []T) lookup.Result[T] {
	switch len(docs) {
	case 0:
		return lookup.Result[T]{Kind: lookup.NotFound}
	case 1:
		return lookup.FoundResult(docs[0])
	default:
		return lookup.Result[T]{Kind: lookup.Ambiguous}
	}
}

// All lists matching documents in the collection's sort order
func (c *Collection[T]) All(ctx context.Context, criteria ...interface{}) ([]T, error) {
	filter, err := Filter(criteria...)
	if err != nil {
		return nil, err
	}

	findOptions := options.Find()
	if len(c.sort) > 0 {
		findOptions.SetSort(c.sort)
	}

	cursor, err := c.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Create inserts doc and returns its id
func (c *Collection[T]) Create(ctx context.Context, doc T) (primitive.ObjectID, error) {
	result, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected _id type %T", result.InsertedID)
	}
	return id, nil
}

// EnsureIndexes creates the given indexes if they do not exist yet
func (c *Collection[T]) EnsureIndexes(ctx context.Context, indexes ...mongo.IndexModel) error {
	if len(indexes) == 0 {
		return nil
	}
	if _, err := c.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", c.coll.Name(), err)
	}
	return nil
}
