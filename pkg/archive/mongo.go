package archive

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/shed/pkg/errors"
	"github.com/matzehuels/shed/pkg/pipeline"
)

// CollectionRuns holds one document per run.
const CollectionRuns = "runs"

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Mongo archives runs in MongoDB.
type Mongo struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// NewMongo connects to uri and uses database db.
func NewMongo(ctx context.Context, uri, db string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to archive")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping archive")
	}

	m := &Mongo{client: client, runs: client.Database(db).Collection(CollectionRuns)}
	if err := m.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.runs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "app_name", Value: 1}, {Key: "finished_at", Value: -1}}},
		{Keys: bson.D{{Key: "records.name", Value: 1}, {Key: "records.ecosystem", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create archive indexes")
	}
	return nil
}

// Write stores the run, replacing an earlier document with the same ID.
func (m *Mongo) Write(ctx context.Context, s *pipeline.Summary) error {
	doc := FromSummary(s)
	_, err := m.runs.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "archive run %s", doc.ID)
	}
	return nil
}

// Get returns one run.
func (m *Mongo) Get(ctx context.Context, runID string) (*Run, error) {
	var r Run
	err := m.runs.FindOne(ctx, bson.M{"_id": runID}).Decode(&r)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s not archived", runID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load run %s", runID)
	}
	return &r, nil
}

// List returns the latest runs, newest first, optionally for one
// application. Records are omitted.
func (m *Mongo) List(ctx context.Context, appName string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	filter := bson.M{}
	if appName != "" {
		filter["app_name"] = appName
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "finished_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"records": 0})

	cur, err := m.runs.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list runs")
	}
	var out []Run
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode runs")
	}
	return out, nil
}

// Close disconnects from MongoDB.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
