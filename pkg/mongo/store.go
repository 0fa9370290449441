package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/scope"
)

// Store keeps each scoped table in a collection of the same name.
// Documents use the row's "id" as _id; _id is never returned to callers.
type Store struct {
	db     *mongo.Database
	column string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTenantColumn sets the field every operation must carry.
func WithTenantColumn(column string) StoreOption {
	return func(s *Store) {
		if column != "" {
			s.column = column
		}
	}
}

// NewStore creates a store over db.
func NewStore(db *mongo.Database, opts ...StoreOption) *Store {
	s := &Store{db: db, column: scope.DefaultTenantColumn}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, table string, row scope.Row) (scope.Row, error) {
	if err := s.requireTenant(row); err != nil {
		return nil, err
	}

	out := row.Clone()
	if _, ok := out[scope.IDColumn]; !ok {
		out[scope.IDColumn] = uuid.NewString()
	}
	doc := bson.M(out.Clone())
	doc["_id"] = out[scope.IDColumn]

	if _, err := s.db.Collection(table).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	return out, nil
}

func (s *Store) Read(ctx context.Context, table string, filter scope.Row) ([]scope.Row, error) {
	if err := s.requireTenant(filter); err != nil {
		return nil, err
	}

	cur, err := s.db.Collection(table).Find(ctx, bson.M(filter))
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", table, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}

	rows := make([]scope.Row, 0, len(docs))
	for _, d := range docs {
		delete(d, "_id")
		rows = append(rows, scope.Row(d))
	}
	return rows, nil
}

func (s *Store) Update(ctx context.Context, table string, filter, changes scope.Row) (int64, error) {
	if err := s.requireTenant(filter); err != nil {
		return 0, err
	}

	res, err := s.db.Collection(table).UpdateMany(ctx, bson.M(filter), bson.M{"$set": bson.M(changes)})
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", table, err)
	}
	return res.MatchedCount, nil
}

func (s *Store) Delete(ctx context.Context, table string, filter scope.Row) (int64, error) {
	if err := s.requireTenant(filter); err != nil {
		return 0, err
	}

	res, err := s.db.Collection(table).DeleteMany(ctx, bson.M(filter))
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return res.DeletedCount, nil
}

func (s *Store) requireTenant(r scope.Row) error {
	if v, ok := r[s.column].(string); !ok || v == "" {
		return fmt.Errorf("%w: field %s", ErrMissingTenantFilter, s.column)
	}
	return nil
}
