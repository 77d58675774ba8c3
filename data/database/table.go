package database

import "go.mongodb.org/mongo-driver/mongo"

type Table interface {
	TableName() string
}

// Collection 按模型的表名取集合。
func Collection(db *mongo.Database, t Table) *mongo.Collection {
	return db.Collection(t.TableName())
}
