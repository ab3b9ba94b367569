package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukane-philemon/studentmarks/internal/db"
	"github.com/ukane-philemon/studentmarks/internal/student"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	// Collections
	studentMarksCollection = "studentMarks"

	// Keys
	dbIDKey = "_id"

	// snapshotID is the _id of the document holding all records.
	snapshotID = "studentMarks"

	// operationTimeout bounds each Read and Write.
	operationTimeout = 30 * time.Second
)

// MongoDB persists student records as a single snapshot document, so a
// write replaces the count and every record at once.
type MongoDB struct {
	ctx                context.Context
	db                 *mongo.Database
	studentsCollection *mongo.Collection
	log                *zap.Logger
}

// New connects to a mongo database and returns a new instance of *MongoDB.
// ctx bounds the connection attempt only. Reads and writes keep working after
// ctx is cancelled so that pending changes can still be flushed on shutdown.
func New(ctx context.Context, dbName string, connectionURL string, log *zap.Logger) (*MongoDB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("mongodb")

	mdb, err := db.NewMongoDB(ctx, dbName, connectionURL, log)
	if err != nil {
		return nil, err
	}

	return newMongoDB(ctx, mdb, log), nil
}

func newMongoDB(ctx context.Context, mdb *mongo.Database, log *zap.Logger) *MongoDB {
	return &MongoDB{
		ctx:                context.WithoutCancel(ctx),
		db:                 mdb,
		studentsCollection: mdb.Collection(studentMarksCollection),
		log:                log,
	}
}

// Read returns the persisted records. Returns db.ErrorNotExist if no
// snapshot has been written yet.
func (mdb *MongoDB) Read() ([]student.Record, error) {
	ctx, cancel := mdb.operationContext()
	defer cancel()

	var snapshot *dbSnapshot
	err := mdb.studentsCollection.FindOne(ctx, bson.M{dbIDKey: snapshotID}).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: no snapshot in collection %s", db.ErrorNotExist, studentMarksCollection)
		}
		return nil, fmt.Errorf("%w: studentsCollection.FindOne error: %w", db.ErrorIO, err)
	}

	if snapshot.Count != len(snapshot.Records) {
		return nil, fmt.Errorf("%w: snapshot count %d does not match %d records",
			db.ErrorMalformed, snapshot.Count, len(snapshot.Records))
	}

	records := make([]student.Record, 0, len(snapshot.Records))
	for index, dbRecord := range snapshot.Records {
		record, ok := dbRecord.StudentRecord()
		if !ok {
			mdb.log.Warn("Skipping malformed student record", zap.Int("position", index),
				zap.Int("coursework_marks", len(dbRecord.CourseworkMarks)))
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// Write replaces the persisted snapshot with records.
func (mdb *MongoDB) Write(records []student.Record) error {
	snapshot := &dbSnapshot{
		ID:            snapshotID,
		Count:         len(records),
		Records:       make([]dbStudentRecord, 0, len(records)),
		LastUpdatedAt: time.Now().Unix(),
	}
	for _, r := range records {
		snapshot.Records = append(snapshot.Records, newDBStudentRecord(r))
	}

	ctx, cancel := mdb.operationContext()
	defer cancel()

	_, err := mdb.studentsCollection.ReplaceOne(ctx, bson.M{dbIDKey: snapshotID}, snapshot, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: studentsCollection.ReplaceOne error: %w", db.ErrorIO, err)
	}

	return nil
}

// operationContext returns the context for one database operation.
func (mdb *MongoDB) operationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(mdb.ctx, operationTimeout)
}

// Shutdown attempts to shutdown the database.
func (mdb *MongoDB) Shutdown(ctx context.Context) error {
	return db.ShutdownMongoDB(ctx, mdb.db, mdb.log)
}
