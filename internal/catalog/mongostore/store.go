package mongostore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"karaokesearch/internal/catalog"
	"karaokesearch/internal/domain"
)

// Store is the Mongo-backed catalog store.
type Store struct {
	collection *mongo.Collection
}

type trackDoc struct {
	ID          string `bson:"_id"`
	Source      string `bson:"source"`
	Artist      string `bson:"artist"`
	Title       string `bson:"title"`
	Identifier  string `bson:"identifier,omitempty"`
	Brand       string `bson:"brand,omitempty"`
	PurchaseURL string `bson:"purchaseUrl,omitempty"`
	DisplayURL  string `bson:"displayUrl,omitempty"`
	ImageURL    string `bson:"imageUrl,omitempty"`
	CreatedAt   int64  `bson:"createdAt"`
}

func NewStore(client *mongo.Client, dbName, collectionName string) *Store {
	return &Store{collection: client.Database(dbName).Collection(collectionName)}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	if s == nil || s.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "source", Value: 1}, {Key: "identifier", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"identifier": bson.M{"$gt": ""}}),
		},
		{Keys: bson.D{{Key: "source", Value: 1}, {Key: "artist", Value: 1}, {Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "artist", Value: 1}}},
		{Keys: bson.D{{Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (s *Store) FindByIdentity(ctx context.Context, key catalog.IdentityKey) (domain.Track, error) {
	doc, err := s.findDoc(ctx, key)
	if err != nil {
		return domain.Track{}, err
	}
	return fromDoc(doc), nil
}

func (s *Store) findDoc(ctx context.Context, key catalog.IdentityKey) (trackDoc, error) {
	if key.Identifier != "" {
		var doc trackDoc
		err := s.collection.FindOne(ctx, bson.M{
			"source":     key.Source,
			"identifier": strings.ToUpper(strings.TrimSpace(key.Identifier)),
		}).Decode(&doc)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return trackDoc{}, err
		}
		// An identifier-bearing row may upgrade an identifier-less one for
		// the same artist/title.
		err = s.collection.FindOne(ctx, bson.M{
			"source": key.Source,
			"artist": exactInsensitive(key.Artist),
			"title":  exactInsensitive(key.Title),
			"$or": []bson.M{
				{"identifier": bson.M{"$exists": false}},
				{"identifier": ""},
			},
		}).Decode(&doc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return trackDoc{}, catalog.ErrNotFound
			}
			return trackDoc{}, err
		}
		return doc, nil
	}

	var doc trackDoc
	err := s.collection.FindOne(ctx, bson.M{
		"source": key.Source,
		"artist": exactInsensitive(key.Artist),
		"title":  exactInsensitive(key.Title),
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return trackDoc{}, catalog.ErrNotFound
		}
		return trackDoc{}, err
	}
	return doc, nil
}

func (s *Store) Upsert(ctx context.Context, track domain.Track) (catalog.Outcome, error) {
	track = catalog.Normalize(track)
	if err := catalog.Validate(track); err != nil {
		return "", err
	}

	existing, err := s.findDoc(ctx, catalog.IdentityKey{
		Source:     track.Source,
		Identifier: track.Identifier,
		Artist:     track.Artist,
		Title:      track.Title,
	})
	switch {
	case err == nil:
		merged := catalog.MergeForUpdate(fromDoc(existing), track)
		doc := toDoc(merged)
		doc.ID = existing.ID
		if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": existing.ID}, doc); err != nil {
			return "", err
		}
		return catalog.OutcomeUpdated, nil
	case errors.Is(err, catalog.ErrNotFound):
		if track.CreatedAt.IsZero() {
			track.CreatedAt = time.Now().UTC()
		}
		doc := toDoc(track)
		doc.ID = newID()
		if _, err := s.collection.InsertOne(ctx, doc); err != nil {
			return "", err
		}
		return catalog.OutcomeAdded, nil
	default:
		return "", err
	}
}

func (s *Store) Search(ctx context.Context, query catalog.Query, limit, offset int) ([]domain.Track, error) {
	if query.IsZero() {
		return nil, nil
	}

	filter := buildFilter(query)
	opts := options.Find().SetSort(bson.D{{Key: "artist", Value: 1}, {Key: "title", Value: 1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []trackDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	tracks := make([]domain.Track, 0, len(docs))
	for _, doc := range docs {
		tracks = append(tracks, fromDoc(doc))
	}
	return tracks, nil
}

func buildFilter(query catalog.Query) bson.M {
	if query.ArtistPart != "" || query.TitlePart != "" {
		and := make([]bson.M, 0, 2)
		if query.ArtistPart != "" {
			and = append(and, bson.M{"artist": containsInsensitive(query.ArtistPart)})
		}
		if query.TitlePart != "" {
			and = append(and, bson.M{"title": containsInsensitive(query.TitlePart)})
		}
		return bson.M{"$and": and}
	}
	if len(query.Tokens) > 0 {
		and := make([]bson.M, 0, len(query.Tokens))
		for _, token := range query.Tokens {
			and = append(and, bson.M{"$or": []bson.M{
				{"artist": containsInsensitive(token)},
				{"title": containsInsensitive(token)},
			}})
		}
		return bson.M{"$and": and}
	}
	return bson.M{"$or": []bson.M{
		{"artist": containsInsensitive(query.Raw)},
		{"title": containsInsensitive(query.Raw)},
	}}
}

func (s *Store) Count(ctx context.Context, source string) (int64, error) {
	filter := bson.M{}
	if strings.TrimSpace(source) != "" {
		filter["source"] = strings.TrimSpace(source)
	}
	return s.collection.CountDocuments(ctx, filter)
}

func (s *Store) DeleteBySource(ctx context.Context, source string) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{"source": strings.TrimSpace(source)})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func containsInsensitive(value string) bson.M {
	return bson.M{
		"$regex":   regexp.QuoteMeta(strings.TrimSpace(value)),
		"$options": "i",
	}
}

func exactInsensitive(value string) bson.M {
	return bson.M{
		"$regex":   "^" + regexp.QuoteMeta(strings.TrimSpace(value)) + "$",
		"$options": "i",
	}
}

func toDoc(t domain.Track) trackDoc {
	return trackDoc{
		Source:      t.Source,
		Artist:      t.Artist,
		Title:       t.Title,
		Identifier:  t.Identifier,
		Brand:       t.Brand,
		PurchaseURL: t.PurchaseURL,
		DisplayURL:  t.DisplayURL,
		ImageURL:    t.ImageURL,
		CreatedAt:   t.CreatedAt.Unix(),
	}
}

func fromDoc(doc trackDoc) domain.Track {
	return domain.Track{
		Source:      doc.Source,
		Artist:      doc.Artist,
		Title:       doc.Title,
		Identifier:  doc.Identifier,
		Brand:       doc.Brand,
		PurchaseURL: doc.PurchaseURL,
		DisplayURL:  doc.DisplayURL,
		ImageURL:    doc.ImageURL,
		CreatedAt:   time.Unix(doc.CreatedAt, 0).UTC(),
	}
}

func newID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte(time.Now().UTC().Format(time.RFC3339Nano)))[:24]
	}
	return hex.EncodeToString(buf)
}
