package mongo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/workshift/shift-tracker/internal/core/domain"
)

const (
	collectionShifts   = "shifts"
	collectionCounters = "counters"
)

// shiftDocument is the stored form of a shift. Active mirrors end_time == nil
// so the partial unique index can express "one open shift per user".
type shiftDocument struct {
	ID        int64   `bson:"_id"`
	UserID    int64   `bson:"user_id"`
	UserName  string  `bson:"user_name"`
	StartTime string  `bson:"start_time"`
	EndTime   *string `bson:"end_time"`
	Comment   *string `bson:"comment,omitempty"`
	Active    bool    `bson:"active"`
}

// ShiftStore implements ports.ShiftStore on MongoDB.
type ShiftStore struct {
	client   *mongo.Client
	shifts   *mongo.Collection
	counters *mongo.Collection
	loc      *time.Location
	timeout  time.Duration
	logger   zerolog.Logger
	mu       sync.Mutex
}

// NewShiftStore connects, ensures indexes and returns a ready store.
func NewShiftStore(ctx context.Context, cfg Config, loc *time.Location, logger zerolog.Logger) (*ShiftStore, error) {
	client, db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, domain.NewStorageError("connect", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	s := &ShiftStore{
		client:   client,
		shifts:   db.Collection(collectionShifts),
		counters: db.Collection(collectionCounters),
		loc:      loc,
		timeout:  cfg.timeout(),
		logger:   logger.With().Str("component", "mongostore").Logger(),
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, domain.NewStorageError("ensure indexes", err)
	}

	s.logger.Info().Str("database", cfg.Database).Msg("shift store ready")
	return s, nil
}

// EnsureIndexes creates the indexes the store relies on.
func (s *ShiftStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_time", Value: -1}}},
		{Keys: bson.D{{Key: "start_time", Value: -1}, {Key: "_id", Value: -1}}},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("one_active_shift_per_user").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
	}

	_, err := s.shifts.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *ShiftStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return domain.NewStorageError("ping", s.client.Ping(ctx, nil))
}

func (s *ShiftStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// nextID allocates a monotonically increasing shift id from the counters
// collection.
func (s *ShiftStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": collectionShifts},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

func (s *ShiftStore) CreateShift(ctx context.Context, userID int64, userName string, startTime time.Time) (*domain.ShiftRecord, error) {
	const op = "create shift"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.shifts.CountDocuments(ctx, bson.M{"user_id": userID, "active": true})
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	if n > 0 {
		return nil, domain.ErrShiftConflict
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}

	doc := shiftDocument{
		ID:        id,
		UserID:    userID,
		UserName:  userName,
		StartTime: domain.FormatTime(startTime, s.loc),
		Active:    true,
	}
	if _, err := s.shifts.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrShiftConflict
		}
		return nil, domain.NewStorageError(op, err)
	}

	rec, err := s.toRecord(doc)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	return rec, nil
}

func (s *ShiftStore) CloseActiveShift(ctx context.Context, userID int64, endTime time.Time) (*domain.ShiftRecord, error) {
	const op = "close shift"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	var doc shiftDocument
	err := s.shifts.FindOne(ctx, bson.M{"user_id": userID, "active": true}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrShiftNotFound
	}
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}

	rec, err := s.toRecord(doc)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	end := endTime.In(s.loc).Truncate(time.Second)
	if end.Before(rec.StartTime) {
		end = rec.StartTime
	}
	endText := domain.FormatTime(end, s.loc)

	res, err := s.shifts.UpdateOne(ctx,
		bson.M{"_id": doc.ID, "active": true},
		bson.M{"$set": bson.M{"end_time": endText, "active": false}},
	)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrShiftNotFound
	}

	rec.EndTime = &end
	return rec, nil
}

func (s *ShiftStore) ListShiftsForUser(ctx context.Context, userID int64, limit int) ([]domain.ShiftRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return s.find(ctx, "list user shifts", bson.M{"user_id": userID}, opts)
}

func (s *ShiftStore) ListAllShifts(ctx context.Context) ([]domain.ShiftRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, "list shifts", bson.M{}, opts)
}

func (s *ShiftStore) AggregateByUser(ctx context.Context) ([]domain.UserAggregate, error) {
	records, err := s.find(ctx, "aggregate", bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return domain.Aggregate(records), nil
}

func (s *ShiftStore) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]domain.ShiftRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.shifts.Find(ctx, filter, opts)
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	var docs []shiftDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.NewStorageError(op, err)
	}

	out := make([]domain.ShiftRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := s.toRecord(d)
		if err != nil {
			return nil, domain.NewStorageError(op, err)
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (s *ShiftStore) toRecord(d shiftDocument) (*domain.ShiftRecord, error) {
	start, err := domain.ParseTime(d.StartTime, s.loc)
	if err != nil {
		return nil, err
	}
	rec := &domain.ShiftRecord{
		ID:        d.ID,
		UserID:    d.UserID,
		UserName:  d.UserName,
		StartTime: start,
		Comment:   d.Comment,
	}
	if d.EndTime != nil {
		end, err := domain.ParseTime(*d.EndTime, s.loc)
		if err != nil {
			return nil, err
		}
		rec.EndTime = &end
	}
	return rec, nil
}
