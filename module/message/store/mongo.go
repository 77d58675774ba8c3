package store

import (
	"context"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"PingUp/data/database"
	"PingUp/module/message/model"
	"PingUp/tools/errs"
)

// Mongo 基于 messages 集合的实现。
type Mongo struct {
	coll *mongo.Collection
}

type idRow struct {
	ID string `bson:"_id"`
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{coll: database.Collection(db, model.Message{})}
}

// EnsureIndexes 会话查询与未读统计使用的索引。
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "from_user_id", Value: 1}, {Key: "to_user_id", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "to_user_id", Value: 1}, {Key: "seen", Value: 1}}},
	})
	return errs.WrapMsg(err, "ensure message indexes")
}

func (s *Mongo) Create(ctx context.Context, m *model.Message) error {
	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		return errs.WrapMsg(err, "insert message", "id", m.ID)
	}
	return nil
}

func (s *Mongo) Get(ctx context.Context, id string) (*model.Message, error) {
	var m model.Message
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("message not found", "id", id)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find message", "id", id)
	}
	return &m, nil
}

func conversationFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"from_user_id": a, "to_user_id": b},
		bson.M{"from_user_id": b, "to_user_id": a},
	}}
}

var (
	sortAscending  = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	sortDescending = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
)

func (s *Mongo) Conversation(ctx context.Context, userID, otherID string, limit int64) ([]*model.Message, error) {
	opts := options.Find().SetSort(sortAscending)
	if limit > 0 {
		// 取最新 N 条，再翻转成升序
		opts = options.Find().SetSort(sortDescending).SetLimit(limit)
	}
	cur, err := s.coll.Find(ctx, conversationFilter(userID, otherID), opts)
	if err != nil {
		return nil, errs.WrapMsg(err, "find conversation")
	}
	var out []*model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode conversation")
	}
	if limit > 0 {
		out = lo.Reverse(out)
	}
	return out, nil
}

func (s *Mongo) MarkSeen(ctx context.Context, readerID, senderID string) ([]string, error) {
	filter := bson.M{"from_user_id": senderID, "to_user_id": readerID, "seen": false}
	cur, err := s.coll.Find(ctx, filter, options.Find().
		SetSort(sortAscending).
		SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, errs.WrapMsg(err, "find unseen")
	}
	var rows []idRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errs.WrapMsg(err, "decode unseen")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	// 逐条条件更新：并发读取时只有真正把 seen 置为 true 的一方拿到该 id
	now := model.Now()
	changed := make([]string, 0, len(rows))
	for _, r := range rows {
		res, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": r.ID, "seen": false},
			bson.M{"$set": bson.M{"seen": true, "updatedAt": now}},
		)
		if err != nil {
			return nil, errs.WrapMsg(err, "mark seen", "id", r.ID)
		}
		if res.ModifiedCount == 1 {
			changed = append(changed, r.ID)
		}
	}
	return changed, nil
}

func (s *Mongo) Recent(ctx context.Context, userID string) ([]*model.Message, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"from_user_id": userID},
			bson.M{"to_user_id": userID},
		}}}},
		{{Key: "$sort", Value: sortDescending}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$from_user_id", userID}},
				"$to_user_id",
				"$from_user_id",
			}},
			"latest": bson.M{"$first": "$$ROOT"},
		}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$latest"}}},
		{{Key: "$sort", Value: sortDescending}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errs.WrapMsg(err, "aggregate recent")
	}
	var out []*model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode recent")
	}
	return out, nil
}

func (s *Mongo) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errs.WrapMsg(err, "delete message", "id", id)
	}
	if res.DeletedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("message not found", "id", id)
	}
	return nil
}

func (s *Mongo) UnseenByReceiver(ctx context.Context) ([]model.UnseenCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"seen": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$to_user_id", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errs.WrapMsg(err, "aggregate unseen")
	}
	var out []model.UnseenCount
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode unseen counts")
	}
	return out, nil
}
