package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"storefront-catalog-service/internal/service"
	"storefront-catalog-service/internal/store"
)

// The read-only catalog service is described with well-known protobuf types so
// that it needs no generated code. Messages carry the same JSON shapes as the
// HTTP API.
const (
	CatalogServiceName                     = "catalog.v1.CatalogService"
	CatalogService_GetProduct_FullMethod   = "/" + CatalogServiceName + "/GetProduct"
	CatalogService_ListProducts_FullMethod = "/" + CatalogServiceName + "/ListProducts"
)

// CatalogServiceServer is the server API for the catalog service.
type CatalogServiceServer interface {
	GetProduct(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	ListProducts(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&CatalogService_ServiceDesc, srv)
}

func _CatalogService_GetProduct_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServiceServer).GetProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CatalogService_GetProduct_FullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServiceServer).GetProduct(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func _CatalogService_ListProducts_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServiceServer).ListProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CatalogService_ListProducts_FullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServiceServer).ListProducts(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// CatalogService_ServiceDesc is the grpc.ServiceDesc for the catalog service.
var CatalogService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: _CatalogService_GetProduct_Handler},
		{MethodName: "ListProducts", Handler: _CatalogService_ListProducts_Handler},
	},
	Streams: []grpc.StreamDesc{},
}

// CatalogServiceClient is the client API for the catalog service.
type CatalogServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogServiceClient(cc grpc.ClientConnInterface) *CatalogServiceClient {
	return &CatalogServiceClient{cc: cc}
}

func (c *CatalogServiceClient) GetProduct(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CatalogService_GetProduct_FullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogServiceClient) ListProducts(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, CatalogService_ListProducts_FullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GRPCHandler implements CatalogServiceServer on top of the product service.
type GRPCHandler struct {
	products ProductServicer
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(products ProductServicer) *GRPCHandler {
	return &GRPCHandler{products: products}
}

var _ CatalogServiceServer = (*GRPCHandler)(nil)

// --- Helper: Error Mapping ---
func mapServiceErrorToGrpcStatus(err error, resourceName string, resourceID interface{}) error {
	if err == nil {
		return nil
	}
	var verr *service.ValidationError
	switch {
	case errors.Is(err, store.ErrProductNotFound):
		return status.Errorf(codes.NotFound, "%s with ID %v not found", resourceName, resourceID)
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	default:
		log.Printf("ERROR: gRPC operation for %s ID %v failed: %v", resourceName, resourceID, err)
		return status.Errorf(codes.Internal, "Failed to process request for %s ID %v", resourceName, resourceID)
	}
}

// toProto converts v to its JSON form and decodes that into msg.
func toProto(v any, msg proto.Message) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if err := protojson.Unmarshal(raw, msg); err != nil {
		return fmt.Errorf("convert response: %w", err)
	}
	return nil
}

func (s *GRPCHandler) GetProduct(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	productID := req.GetValue()
	log.Printf("INFO: Received gRPC GetProduct request for ID: %d", productID)

	if productID <= 0 {
		log.Printf("WARN: Invalid Product ID received: %d", productID)
		return nil, status.Errorf(codes.InvalidArgument, "Product ID must be a positive integer")
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, mapServiceErrorToGrpcStatus(err, "Product", productID)
	}

	out := &structpb.Struct{}
	if err := toProto(newProductDetail(product), out); err != nil {
		return nil, mapServiceErrorToGrpcStatus(err, "Product", productID)
	}
	return out, nil
}

func (s *GRPCHandler) ListProducts(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	log.Printf("INFO: Received gRPC ListProducts request")

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		log.Printf("ERROR: Error listing products: %v", err)
		return nil, status.Errorf(codes.Internal, "Failed to list products")
	}

	out := &structpb.ListValue{}
	if err := toProto(newProductSummaries(products), out); err != nil {
		log.Printf("ERROR: Error converting product list: %v", err)
		return nil, status.Errorf(codes.Internal, "Failed to list products")
	}
	log.Printf("INFO: Successfully listed %d products", len(products))
	return out, nil
}
