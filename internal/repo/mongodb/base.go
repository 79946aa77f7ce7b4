package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

var _ IRepository[IEntity] = (*baseRepo[IEntity])(nil)

// IEntity is a document stored in its own collection. GetUpdates returns
// the fields a $set may overwrite.
type IEntity interface {
	CollectionName() string
	GetUpdates() any
	GetObjectID() models.ObjectID
}

type PaginateWithTotal[E any] struct {
	Total int64
	Data  []E
}

type IRepository[E IEntity] interface {
	Insert(ctx context.Context, entity E, opts ...*options.InsertOneOptions) (models.ObjectID, error)
	Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]E, error)
	FindByID(ctx context.Context, docID models.ObjectID) (*E, error)
	FindOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*E, error)
	UpdateOne(ctx context.Context, filter bson.M, entity E, opts ...*options.FindOneAndUpdateOptions) (*E, error)
	UpsertOne(ctx context.Context, filter bson.M, entity E, upsertOpts UpsertOpts, opts ...*options.FindOneAndUpdateOptions) (*E, error)
	DeleteOne(ctx context.Context, filter bson.M) error
	DeleteMany(ctx context.Context, filter bson.M) (int64, error)
	Count(ctx context.Context, filter bson.M, opts ...*options.CountOptions) (int64, error)
	PaginateWithTotal(ctx context.Context, filter bson.M, limit int64, skip int64, opts ...*options.FindOptions) (*PaginateWithTotal[E], error)
}

// UpsertOpts adds the operators that only make sense on an upsert.
type UpsertOpts struct {
	SetOnInsert bson.M
	Unset       bson.M
}

type baseRepo[E IEntity] struct {
	coll *mongo.Collection
}

func newBaseRepo[E IEntity](db *mongo.Database) baseRepo[E] {
	var zero E
	return baseRepo[E]{coll: db.Collection(zero.CollectionName())}
}

// wrap names the failed operation and maps driver errors onto the models
// sentinels: a missing document is ErrNotFound, a unique index hit is
// ErrConflict.
func (r *baseRepo[E]) wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		err = models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		err = models.ErrConflict
	}
	return fmt.Errorf("%s %s: %w", r.coll.Name(), op, err)
}

func (r *baseRepo[E]) Insert(ctx context.Context, entity E, opts ...*options.InsertOneOptions) (models.ObjectID, error) {
	res, err := r.coll.InsertOne(ctx, entity, opts...)
	if err != nil {
		return "", r.wrap("insert", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", r.wrap("insert", fmt.Errorf("unexpected id type %T", res.InsertedID))
	}
	return models.ObjectID(oid.Hex()), nil
}

func (r *baseRepo[E]) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]E, error) {
	cur, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, r.wrap("find", err)
	}
	out := []E{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, r.wrap("decode", err)
	}
	return out, nil
}

// FindByID treats a malformed id like a missing document.
func (r *baseRepo[E]) FindByID(ctx context.Context, docID models.ObjectID) (*E, error) {
	if !docID.IsValid() {
		return nil, r.wrap("find by id", models.ErrNotFound)
	}
	return r.FindOne(ctx, bson.M{"_id": docID})
}

func (r *baseRepo[E]) FindOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*E, error) {
	var out E
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		return nil, r.wrap("find one", err)
	}
	return &out, nil
}

// UpdateOne applies GetUpdates to the matching document and returns it as
// stored afterwards.
func (r *baseRepo[E]) UpdateOne(ctx context.Context, filter bson.M, entity E, opts ...*options.FindOneAndUpdateOptions) (*E, error) {
	opts = append(opts, options.FindOneAndUpdate().SetReturnDocument(options.After))
	var out E
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": entity.GetUpdates()}, opts...).Decode(&out)
	if err != nil {
		return nil, r.wrap("update", err)
	}
	return &out, nil
}

// UpsertOne is UpdateOne that creates the document when filter matches
// nothing. The equality fields of filter are copied in by the server.
func (r *baseRepo[E]) UpsertOne(ctx context.Context, filter bson.M, entity E, upsertOpts UpsertOpts, opts ...*options.FindOneAndUpdateOptions) (*E, error) {
	update := bson.M{"$set": entity.GetUpdates()}
	if len(upsertOpts.SetOnInsert) > 0 {
		update["$setOnInsert"] = upsertOpts.SetOnInsert
	}
	if len(upsertOpts.Unset) > 0 {
		update["$unset"] = upsertOpts.Unset
	}
	opts = append(opts, options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After))

	var out E
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts...).Decode(&out); err != nil {
		return nil, r.wrap("upsert", err)
	}
	return &out, nil
}

func (r *baseRepo[E]) DeleteOne(ctx context.Context, filter bson.M) error {
	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return r.wrap("delete", err)
	}
	if res.DeletedCount == 0 {
		return r.wrap("delete", models.ErrNotFound)
	}
	return nil
}

func (r *baseRepo[E]) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, r.wrap("delete many", err)
	}
	return res.DeletedCount, nil
}

func (r *baseRepo[E]) Count(ctx context.Context, filter bson.M, opts ...*options.CountOptions) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, filter, opts...)
	return n, r.wrap("count", err)
}

// PaginateWithTotal runs the page query and the count concurrently.
func (r *baseRepo[E]) PaginateWithTotal(ctx context.Context, filter bson.M, limit int64, skip int64, opts ...*options.FindOptions) (*PaginateWithTotal[E], error) {
	page := &PaginateWithTotal[E]{Data: []E{}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := r.Find(gctx, filter, append(opts, options.Find().SetSkip(skip).SetLimit(limit))...)
		page.Data = data
		return err
	})
	g.Go(func() error {
		total, err := r.Count(gctx, filter)
		page.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}
