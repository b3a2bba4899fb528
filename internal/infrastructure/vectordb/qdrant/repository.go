// Package qdrant provides a VectorDB implementation using Qdrant.
package qdrant

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ersonp/activity-core/internal/domain/entities"
	"github.com/ersonp/activity-core/internal/infrastructure/config"
)

// pointNamespace derives stable point UUIDs from activity IDs that are not UUIDs.
var pointNamespace = uuid.MustParse("6f1c2a8e-3d4b-5e6f-8a9b-0c1d2e3f4a5b")

// Repository implements the VectorDB interface using Qdrant.
// Each repository is bound to one site's collection.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository for a collection.
func NewRepository(cfg config.QdrantConfig, collection string) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	transport := insecure.NewCredentials()
	if cfg.UseTLS {
		transport = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts := []grpc.DialOption{grpc.WithTransportCredentials(transport)}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: collection,
		conn:       conn,
	}, nil
}

// apiKeyInterceptor attaches the Qdrant Cloud api-key header to every call.
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Collection returns the bound collection name.
func (r *Repository) Collection() string {
	return r.collection
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection drops the collection and every point in it.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// SaveBatch stores multiple activities with their embeddings.
func (r *Repository) SaveBatch(ctx context.Context, activities []entities.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(activities))
	for i := range activities {
		points = append(points, activityToPoint(&activities[i]))
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

// Search performs a semantic search and returns similar activities.
func (r *Repository) Search(ctx context.Context, embedding []float32, limit int) ([]entities.Activity, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload:    payloadEnabled(),
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	return scoredPointsToActivities(resp.Result), nil
}

// SearchByName performs a semantic search filtered by activity name.
func (r *Repository) SearchByName(ctx context.Context, embedding []float32, name string, limit int) ([]entities.Activity, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		Filter:         keywordFilter("name", name),
		WithPayload:    payloadEnabled(),
	})
	if err != nil {
		return nil, fmt.Errorf("searching points by name: %w", err)
	}

	return scoredPointsToActivities(resp.Result), nil
}

// Delete removes an activity by its ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{
						{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(id)}},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting point: %w", err)
	}

	return nil
}

// Count returns the number of indexed activities.
func (r *Repository) Count(ctx context.Context) (uint64, error) {
	resp, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("getting collection info: %w", err)
	}

	if resp.Result.PointsCount == nil {
		return 0, nil
	}

	return *resp.Result.PointsCount, nil
}

// PointID maps an activity ID to a Qdrant point UUID.
// UUIDs pass through; anything else gets a stable name-based UUID.
func PointID(activityID string) string {
	if id, err := uuid.Parse(activityID); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(pointNamespace, []byte(activityID)).String()
}

func activityToPoint(a *entities.Activity) *pb.PointStruct {
	payload := map[string]*pb.Value{
		"activity_id":   stringValue(a.ID),
		"site_id":       stringValue(a.SiteID),
		"name":          stringValue(a.Name),
		"type":          stringValue(a.Type),
		"summary":       stringValue(a.Summary),
		"text":          stringValue(a.Text),
		"actor":         stringValue(a.Actor),
		"status":        stringValue(a.Status),
		"rewind_id":     stringValue(a.RewindID),
		"is_rewindable": {Kind: &pb.Value_BoolValue{BoolValue: a.IsRewindable}},
		"published_at":  stringValue(a.PublishedAt.UTC().Format(time.RFC3339Nano)),
	}
	if a.TargetTimestamp != nil {
		payload["target_ts"] = stringValue(a.TargetTimestamp.UTC().Format(time.RFC3339Nano))
	}

	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(a.ID)},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: a.Embedding},
			},
		},
		Payload: payload,
	}
}

// scoredPointsToActivities converts scored points to activities.
func scoredPointsToActivities(points []*pb.ScoredPoint) []entities.Activity {
	activities := make([]entities.Activity, 0, len(points))
	for _, point := range points {
		activities = append(activities, payloadToActivity(point.Payload))
	}
	return activities
}

// payloadToActivity rebuilds an activity from its point payload.
func payloadToActivity(payload map[string]*pb.Value) entities.Activity {
	a := entities.Activity{
		ID:           getStringValue(payload, "activity_id"),
		SiteID:       getStringValue(payload, "site_id"),
		Name:         getStringValue(payload, "name"),
		Type:         getStringValue(payload, "type"),
		Summary:      getStringValue(payload, "summary"),
		Text:         getStringValue(payload, "text"),
		Actor:        getStringValue(payload, "actor"),
		Status:       getStringValue(payload, "status"),
		RewindID:     getStringValue(payload, "rewind_id"),
		IsRewindable: getBoolValue(payload, "is_rewindable"),
		PublishedAt:  getTimeValue(payload, "published_at"),
	}
	if ts := getTimeValue(payload, "target_ts"); !ts.IsZero() {
		a.TargetTimestamp = &ts
	}
	return a
}

func payloadEnabled() *pb.WithPayloadSelector {
	return &pb.WithPayloadSelector{
		SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
	}
}

func keywordFilter(key, value string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: key,
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{Keyword: value},
						},
					},
				},
			},
		},
	}
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

// Helper functions for payload extraction.
func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func getBoolValue(payload map[string]*pb.Value, key string) bool {
	if v, ok := payload[key]; ok {
		return v.GetBoolValue()
	}
	return false
}

func getTimeValue(payload map[string]*pb.Value, key string) time.Time {
	s := getStringValue(payload, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
