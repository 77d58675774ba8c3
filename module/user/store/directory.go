//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../../../mocks/mock_directory.go -package=mocks
package store

import (
	"context"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"PingUp/data/database"
	"PingUp/module/user/model"
	"PingUp/tools/errs"
)

// Directory 只读的用户目录。
type Directory interface {
	// Summaries returns one summary per requested id; unknown ids get the fallback.
	Summaries(ctx context.Context, ids []string) (map[string]model.Summary, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{coll: database.Collection(db, model.User{})}
}

var summaryProjection = bson.M{"_id": 1, "full_name": 1, "profile_picture": 1}

func (d *Mongo) Summaries(ctx context.Context, ids []string) (map[string]model.Summary, error) {
	ids = lo.Uniq(lo.Compact(ids))
	out := make(map[string]model.Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := d.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, errs.WrapMsg(err, "find users")
	}
	var users []model.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, errs.WrapMsg(err, "decode users")
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	fillMissing(out, ids)
	return out, nil
}

func (d *Mongo) Exists(ctx context.Context, id string) (bool, error) {
	err := d.coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, errs.WrapMsg(err, "find user", "id", id)
	}
	return true, nil
}

func fillMissing(out map[string]model.Summary, ids []string) {
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = model.Fallback(id)
		}
	}
}

// Static 固定用户表，用于 memory 模式和测试。
type Static struct {
	users map[string]model.User
}

func NewStatic(users ...model.User) *Static {
	return &Static{users: lo.KeyBy(users, func(u model.User) string { return u.ID })}
}

func (d *Static) Summaries(ctx context.Context, ids []string) (map[string]model.Summary, error) {
	out := make(map[string]model.Summary, len(ids))
	for _, id := range lo.Uniq(lo.Compact(ids)) {
		if u, ok := d.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	fillMissing(out, lo.Compact(ids))
	return out, nil
}

func (d *Static) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := d.users[id]
	return ok, nil
}
