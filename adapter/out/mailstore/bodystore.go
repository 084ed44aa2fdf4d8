package mailstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	bodyCollection       = "item_bodies"
	compressionThreshold = 1024
)

// bodyStore persists item bodies in MongoDB, gzip-compressing all three
// body fields when their combined size exceeds compressionThreshold bytes
// — grounded on the teacher's
// MailBodyAdapter (adapter/out/mongodb/worker_email_body_adapter.go),
// adapted here to the three EAS body shapes (plain, HTML, raw MIME)
// instead of the teacher's HTML/Text pair.
type bodyStore struct {
	collection *mongo.Collection
}

func newBodyStore(db *mongo.Database) *bodyStore {
	return &bodyStore{collection: db.Collection(bodyCollection)}
}

// EnsureIndexes creates the unique (principal, collection, item) index and
// a cached_at index used for retention sweeps.
func (b *bodyStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "principal_id", Value: 1}, {Key: "collection_id", Value: 1}, {Key: "item_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "cached_at", Value: 1}}},
	}
	_, err := b.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type bodyDocument struct {
	PrincipalID  int64  `bson:"principal_id"`
	CollectionID string `bson:"collection_id"`
	ItemID       int64  `bson:"item_id"`

	Plain        []byte `bson:"plain"`
	HTML         []byte `bson:"html"`
	RawMIME      []byte `bson:"raw_mime"`
	IsCompressed bool   `bson:"is_compressed"`

	CachedAt time.Time `bson:"cached_at"`
}

func (b *bodyStore) get(ctx context.Context, principalID int64, collectionID string, itemID int64) (plain, html string, rawMIME []byte, err error) {
	filter := bson.M{"principal_id": principalID, "collection_id": collectionID, "item_id": itemID}
	var doc bodyDocument
	if err := b.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", "", nil, nil
		}
		return "", "", nil, fmt.Errorf("mailstore: get body for item %d: %w", itemID, err)
	}

	plainBytes, htmlBytes, raw := doc.Plain, doc.HTML, doc.RawMIME
	if doc.IsCompressed {
		if plainBytes, err = decompress(plainBytes); err != nil {
			return "", "", nil, err
		}
		if htmlBytes, err = decompress(htmlBytes); err != nil {
			return "", "", nil, err
		}
		if raw, err = decompress(raw); err != nil {
			return "", "", nil, err
		}
	}
	return string(plainBytes), string(htmlBytes), raw, nil
}

// save writes the body fields for one item, upserting by the unique key.
func (b *bodyStore) save(ctx context.Context, principalID int64, collectionID string, itemID int64, plain, html string, rawMIME []byte) error {
	plainBytes := []byte(plain)
	htmlBytes := []byte(html)
	originalSize := len(plainBytes) + len(htmlBytes) + len(rawMIME)

	isCompressed := false
	if originalSize > compressionThreshold {
		var err error
		if plainBytes, err = compress(plainBytes); err != nil {
			return fmt.Errorf("mailstore: compress plain body: %w", err)
		}
		if htmlBytes, err = compress(htmlBytes); err != nil {
			return fmt.Errorf("mailstore: compress html body: %w", err)
		}
		if rawMIME, err = compress(rawMIME); err != nil {
			return fmt.Errorf("mailstore: compress mime body: %w", err)
		}
		isCompressed = true
	}

	doc := bodyDocument{
		PrincipalID:  principalID,
		CollectionID: collectionID,
		ItemID:       itemID,
		Plain:        plainBytes,
		HTML:         htmlBytes,
		RawMIME:      rawMIME,
		IsCompressed: isCompressed,
		CachedAt:     time.Now(),
	}

	filter := bson.M{"principal_id": principalID, "collection_id": collectionID, "item_id": itemID}
	opts := options.Replace().SetUpsert(true)
	_, err := b.collection.ReplaceOne(ctx, filter, doc, opts)
	if err != nil {
		return fmt.Errorf("mailstore: save body for item %d: %w", itemID, err)
	}
	return nil
}

func compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
