package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"recrutement/backoffice-service/internal/search"
)

// Client calls a remote SearchService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// SearchCandidates calls the SearchCandidates RPC.
func (c *Client) SearchCandidates(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SearchCandidatesMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchRawApplications calls the SearchRawApplications RPC.
func (c *Client) SearchRawApplications(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SearchRawApplicationsMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// NewRequest builds a search request message.
func NewRequest(query string, filters search.Filters) (*structpb.Struct, error) {
	fs := make(map[string]any, len(filters))
	for k, v := range filters {
		fs[k] = v
	}
	return structpb.NewStruct(map[string]any{"query": query, "filters": fs})
}
