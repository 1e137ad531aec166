package mongodb

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SearchFilter narrows a keyword search
type SearchFilter struct {
	Fields    []string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
}

// searchQuery builds a case-insensitive substring match over every field in
// f.Fields, optionally bounded by created_at.
func searchQuery(keyword string, f SearchFilter) bson.M {
	pattern := regexp.QuoteMeta(keyword)
	regex := bson.M{"$regex": pattern, "$options": "i"}

	query := bson.M{}
	if len(f.Fields) == 1 {
		query[f.Fields[0]] = regex
	} else if len(f.Fields) > 1 {
		or := make(bson.A, 0, len(f.Fields))
		for _, field := range f.Fields {
			or = append(or, bson.M{field: regex})
		}
		query["$or"] = or
	}

	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["created_at"] = timeQuery
	}

	return query
}

// Search finds documents whose fields contain keyword, case-insensitively
func (c *Collection[T]) Search(ctx context.Context, keyword string, f SearchFilter) ([]T, error) {
	findOptions := options.Find()
	if len(c.sort) > 0 {
		findOptions.SetSort(c.sort)
	}
	if f.Limit > 0 {
		findOptions.SetLimit(f.Limit)
	}

	cursor, err := c.coll.Find(ctx, searchQuery(keyword, f), findOptions)
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
