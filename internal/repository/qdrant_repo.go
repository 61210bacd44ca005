package repository

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
)

const (
	defaultVectorDimension = 1536

	payloadPromptID   = "prompt_id"
	payloadPromptName = "name"
)

// QdrantConnectionConfig holds configuration for Qdrant connection
type QdrantConnectionConfig struct {
	Host            string
	Port            int
	Collection      string
	APIKey          string // Qdrant Cloud API Key (enables TLS automatically)
	UseTLS          bool   // Explicitly enable TLS without API Key
	VectorDimension int
	Timeout         time.Duration // per search/upsert call; 0 means no deadline
}

// apiKeyInterceptor creates a unary interceptor that adds API key to metadata
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// PromptVectorRepository indexes prompt description embeddings in Qdrant for
// nearest-prompt lookups. Point IDs are the prompt UUIDs.
type PromptVectorRepository struct {
	conn            *grpc.ClientConn
	pointsClient    pb.PointsClient
	collectClient   pb.CollectionsClient
	collectionName  string
	vectorDimension int
	timeout         time.Duration
}

// PromptMatch is one nearest-neighbour hit.
type PromptMatch struct {
	PromptID string
	Name     string
	Score    float32
}

// NewPromptVectorRepository creates a new PromptVectorRepository.
// Supports both local Qdrant (insecure) and Qdrant Cloud (TLS + API Key).
func NewPromptVectorRepository(cfg *QdrantConnectionConfig) (*PromptVectorRepository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	vectorDimension := cfg.VectorDimension
	if vectorDimension <= 0 {
		vectorDimension = defaultVectorDimension
	}

	var opts []grpc.DialOption
	if cfg.UseTLS || cfg.APIKey != "" {
		creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &PromptVectorRepository{
		conn:            conn,
		pointsClient:    pb.NewPointsClient(conn),
		collectClient:   pb.NewCollectionsClient(conn),
		collectionName:  cfg.Collection,
		vectorDimension: vectorDimension,
		timeout:         cfg.Timeout,
	}, nil
}

// Close closes the gRPC connection
func (r *PromptVectorRepository) Close() error {
	return r.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist and checks the
// vector size of an existing one.
func (r *PromptVectorRepository) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		if size, ok := collectionVectorSize(info.GetResult()); ok && size != uint64(r.vectorDimension) {
			return fmt.Errorf("collection %s has vector size %d, expected %d", r.collectionName, size, r.vectorDimension)
		}
		return nil
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.vectorDimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	params := info.GetConfig().GetParams()
	if params == nil {
		return 0, false
	}
	vectors := params.GetVectorsConfig()
	if single := vectors.GetParams(); single != nil && single.GetSize() > 0 {
		return single.GetSize(), true
	}
	for _, vectorParams := range vectors.GetParamsMap().GetMap() {
		if size := vectorParams.GetSize(); size > 0 {
			return size, true
		}
	}
	return 0, false
}

func (r *PromptVectorRepository) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// UpsertPrompt stores the prompt's description vector under its ID.
func (r *PromptVectorRepository) UpsertPrompt(ctx context.Context, promptID, name string, vector []float32) error {
	uid, err := uuid.Parse(promptID)
	if err != nil {
		return fmt.Errorf("invalid prompt ID: %w", err)
	}
	if len(vector) != r.vectorDimension {
		return fmt.Errorf("vector size %d does not match collection size %d", len(vector), r.vectorDimension)
	}

	ctx, cancel := r.callContext(ctx)
	defer cancel()

	_, err = r.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collectionName,
		Points: []*pb.PointStruct{
			{
				Id: &pb.PointId{
					PointIdOptions: &pb.PointId_Uuid{Uuid: uid.String()},
				},
				Vectors: &pb.Vectors{
					VectorsOptions: &pb.Vectors_Vector{
						Vector: &pb.Vector{Data: vector},
					},
				},
				Payload: map[string]*pb.Value{
					payloadPromptID:   {Kind: &pb.Value_StringValue{StringValue: uid.String()}},
					payloadPromptName: {Kind: &pb.Value_StringValue{StringValue: name}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert prompt vector: %w", err)
	}
	return nil
}

// SearchNearest returns up to limit prompts closest to vector by cosine score.
func (r *PromptVectorRepository) SearchNearest(ctx context.Context, vector []float32, limit int) ([]PromptMatch, error) {
	ctx, cancel := r.callContext(ctx)
	defer cancel()

	resp, err := r.pointsClient.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search prompt vectors: %w", err)
	}

	matches := make([]PromptMatch, 0, len(resp.GetResult()))
	for _, scored := range resp.GetResult() {
		match := PromptMatch{
			PromptID: scored.GetId().GetUuid(),
			Score:    scored.GetScore(),
		}
		if v, ok := scored.GetPayload()[payloadPromptName]; ok {
			match.Name = v.GetStringValue()
		}
		matches = append(matches, match)
	}
	return matches, nil
}
