package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kestrellabs/lexrag/internal/corpus"
)

// Qdrant serves one corpus from a Qdrant collection. The collection holds
// the same canonical passage schema as the flat store, so both backends
// are interchangeable behind the Store interface.
type Qdrant struct {
	name       string
	collection string
	conn       *grpc.ClientConn
	points     pb.PointsClient
	count      int
}

// NewQdrant connects to a Qdrant instance serving the given collection.
func NewQdrant(ctx context.Context, name, host string, port int, collection string) (*Qdrant, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	q := &Qdrant{
		name:       name,
		collection: collection,
		conn:       conn,
		points:     pb.NewPointsClient(conn),
	}

	resp, err := q.points.Count(ctx, &pb.CountPoints{CollectionName: collection})
	if err == nil && resp.Result != nil {
		q.count = int(resp.Result.Count)
	}
	return q, nil
}

func (q *Qdrant) Name() string { return q.name }

func (q *Qdrant) Len() int { return q.count }

// Upsert indexes passages into the collection. Used only at build time;
// query-time callers treat the collection as read-only.
func (q *Qdrant) Upsert(ctx context.Context, passages []corpus.Passage) error {
	points := make([]*pb.PointStruct, len(passages))
	for i, p := range passages {
		if len(p.Vector) == 0 {
			return fmt.Errorf("%w: passage %s has no vector", ErrIndexCorrupt, p.ID)
		}
		citation, err := json.Marshal(p.Citation)
		if err != nil {
			return fmt.Errorf("marshal citation: %w", err)
		}
		payload := map[string]*pb.Value{
			"passage_id": {Kind: &pb.Value_StringValue{StringValue: p.ID}},
			"text":       {Kind: &pb.Value_StringValue{StringValue: p.Text}},
			"ref":        {Kind: &pb.Value_StringValue{StringValue: p.Ref}},
			"citation":   {Kind: &pb.Value_StringValue{StringValue: string(citation)}},
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: uuid.NewString()}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}}},
			Payload: payload,
		}
	}

	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	})
	if err != nil {
		return err
	}
	q.count += len(points)
	return nil
}

// Search queries the collection. Scores follow the collection's metric
// (higher is better for cosine collections) and are only comparable to
// scores from the same store.
func (q *Qdrant) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(resp.Result))
	for i, pt := range resp.Result {
		p := corpus.Passage{}
		for key, v := range pt.Payload {
			switch key {
			case "passage_id":
				p.ID = v.GetStringValue()
			case "text":
				p.Text = v.GetStringValue()
			case "ref":
				p.Ref = v.GetStringValue()
			case "citation":
				// Best effort; a payload written by Upsert always parses.
				_ = json.Unmarshal([]byte(v.GetStringValue()), &p.Citation)
			}
		}
		if vec := pt.GetVectors().GetVector(); vec != nil {
			p.Vector = vec.Data
		}
		hits = append(hits, Hit{Index: i, Score: pt.Score, Passage: p})
	}
	return hits, nil
}

// Close releases the gRPC connection.
func (q *Qdrant) Close() error { return q.conn.Close() }
