package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	_ Backend = (*MongoStore)(nil)
	_ Marker  = (*MongoStore)(nil)
)

type mongoPost struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Content     string     `bson:"content"`
	Excerpt     string     `bson:"excerpt"`
	Tags        []string   `bson:"tags"`
	Author      string     `bson:"author"`
	ReadTime    string     `bson:"read_time"`
	PublishedAt time.Time  `bson:"published_at"`
	UpdatedAt   *time.Time `bson:"updated_at,omitempty"`
}

func toMongoPost(p Post) mongoPost {
	return mongoPost{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		Excerpt:     p.Excerpt,
		Tags:        nonNilTags(p.Tags),
		Author:      p.Author,
		ReadTime:    p.ReadTime,
		PublishedAt: p.PublishedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d mongoPost) post() Post {
	return Post{
		ID:          d.ID,
		Title:       d.Title,
		Content:     d.Content,
		Excerpt:     d.Excerpt,
		Tags:        d.Tags,
		Author:      d.Author,
		ReadTime:    d.ReadTime,
		PublishedAt: d.PublishedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoStore keeps posts as documents in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	meta       *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	collection := client.Database(database).Collection("posts")
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "published_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create posts index: %w", err)
	}
	return &MongoStore{
		client:     client,
		collection: collection,
		meta:       client.Database(database).Collection("blog_meta"),
	}, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoPost
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	posts := make([]Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.post())
	}
	return posts, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Post, error) {
	var doc mongoPost
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Post{}, ErrNotFound
		}
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	return doc.post(), nil
}

func (s *MongoStore) Insert(ctx context.Context, post Post) error {
	if _, err := s.collection.InsertOne(ctx, toMongoPost(post)); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, post Post) error {
	update := bson.M{"$set": bson.M{
		"title":      post.Title,
		"content":    post.Content,
		"excerpt":    post.Excerpt,
		"tags":       nonNilTags(post.Tags),
		"author":     post.Author,
		"read_time":  post.ReadTime,
		"updated_at": post.UpdatedAt,
	}}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (s *MongoStore) Marked(ctx context.Context, name string) (bool, error) {
	n, err := s.meta.CountDocuments(ctx, bson.M{"_id": name})
	if err != nil {
		return false, fmt.Errorf("read marker %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *MongoStore) Mark(ctx context.Context, name string) error {
	_, err := s.meta.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$setOnInsert": bson.M{"marked_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("write marker %s: %w", name, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
