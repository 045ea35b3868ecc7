package repositories

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/obs"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type deliveryDocument struct {
	DeliveryID   string     `bson:"delivery_id"`
	Position     int        `bson:"position"`
	ContactEmail string     `bson:"contact_email"`
	Lat          float64    `bson:"lat"`
	Lon          float64    `bson:"lon"`
	ScheduledAt  time.Time  `bson:"scheduled_at"`
	DeliveredAt  *time.Time `bson:"delivered_at,omitempty"`
	Arrived      bool       `bson:"arrived"`
	OnTime       bool       `bson:"on_time"`
}

func (d deliveryDocument) toDomain() domain.Delivery {
	out := domain.Delivery{
		ID:           d.DeliveryID,
		ContactEmail: d.ContactEmail,
		Location:     domain.Location{Lat: d.Lat, Lon: d.Lon},
		ScheduledAt:  d.ScheduledAt.UTC(),
		Arrived:      d.Arrived,
		OnTime:       d.OnTime,
	}
	if d.DeliveredAt != nil {
		t := d.DeliveredAt.UTC()
		out.DeliveredAt = &t
	}
	return out
}

// MongoDB-backed implementation of the ScheduleRepository port.
type MongoScheduleRepository struct {
	col *mongo.Collection
}

func NewMongoScheduleRepository(db *mongo.Database) *MongoScheduleRepository {
	return &MongoScheduleRepository{col: db.Collection("deliveries")}
}

// NewMongoClient connects with a bounded dial timeout.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx2, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx2, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func (r *MongoScheduleRepository) ListDeliveries(ctx context.Context) (_ []domain.Delivery, err error) {
	defer obs.Time(ctx, "mongo.schedule.ListDeliveries")(&err)

	cur, err := r.col.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list deliveries: find: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]domain.Delivery, 0, 64)
	for cur.Next(ctx) {
		var doc deliveryDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("list deliveries: decode: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list deliveries: cursor: %w", err)
	}

	return out, nil
}

func (r *MongoScheduleRepository) SaveDeliveryStatus(ctx context.Context, d domain.Delivery) (err error) {
	defer obs.Time(ctx, "mongo.schedule.SaveDeliveryStatus")(&err)

	set := bson.M{
		"arrived": d.Arrived,
		"on_time": d.OnTime,
	}
	if d.DeliveredAt != nil {
		set["delivered_at"] = d.DeliveredAt.UTC()
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"delivery_id": d.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("save delivery status delivery_id=%s: %w", d.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("save delivery status delivery_id=%s: %w", d.ID, domain.ErrUnknownDelivery)
	}

	return nil
}

// Replace the stored schedule with deliveries. Documents whose id is not in
// deliveries are removed; arrival state of kept documents is preserved.
func (r *MongoScheduleRepository) UpsertDeliveries(ctx context.Context, deliveries []domain.Delivery) (err error) {
	defer obs.Time(ctx, "mongo.schedule.UpsertDeliveries")(&err)

	ids := make(bson.A, 0, len(deliveries))
	for _, d := range deliveries {
		if d.ID == "" {
			return errors.New("upsert deliveries: delivery id must not be empty")
		}
		ids = append(ids, d.ID)
	}

	if _, err := r.col.DeleteMany(ctx, bson.M{"delivery_id": bson.M{"$nin": ids}}); err != nil {
		return fmt.Errorf("upsert deliveries: delete stale documents: %w", err)
	}
	if len(deliveries) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(deliveries))
	for i, d := range deliveries {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"delivery_id": d.ID}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"position":      i + 1,
					"contact_email": d.ContactEmail,
					"lat":           d.Location.Lat,
					"lon":           d.Location.Lon,
					"scheduled_at":  d.ScheduledAt.UTC(),
				},
				"$setOnInsert": bson.M{
					"arrived": false,
					"on_time": false,
				},
			}).
			SetUpsert(true))
	}

	if _, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("upsert deliveries: bulk write: %w", err)
	}

	return nil
}
