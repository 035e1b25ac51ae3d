package handlers

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The directory gRPC service is declared by hand over protobuf well-known
// types: records travel as google.protobuf.Struct, collections as
// google.protobuf.ListValue.
const (
	CompanyDirectoryServiceName = "directory.v1.CompanyDirectory"

	ListCompaniesMethod = "/" + CompanyDirectoryServiceName + "/ListCompanies"
	GetCompanyMethod    = "/" + CompanyDirectoryServiceName + "/GetCompany"
)

// CompanyDirectoryServer is the server API for the directory service.
type CompanyDirectoryServer interface {
	ListCompanies(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetCompany(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
}

// RegisterCompanyDirectoryServer registers srv on s.
func RegisterCompanyDirectoryServer(s grpc.ServiceRegistrar, srv CompanyDirectoryServer) {
	s.RegisterService(&companyDirectoryServiceDesc, srv)
}

var companyDirectoryServiceDesc = grpc.ServiceDesc{
	ServiceName: CompanyDirectoryServiceName,
	HandlerType: (*CompanyDirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListCompanies", Handler: listCompaniesHandler},
		{MethodName: "GetCompany", Handler: getCompanyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "directory/v1/directory.proto",
}

func listCompaniesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CompanyDirectoryServer).ListCompanies(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListCompaniesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CompanyDirectoryServer).ListCompanies(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getCompanyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CompanyDirectoryServer).GetCompany(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetCompanyMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CompanyDirectoryServer).GetCompany(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// CompanyDirectoryClient is the client API for the directory service.
type CompanyDirectoryClient struct {
	cc grpc.ClientConnInterface
}

// NewCompanyDirectoryClient wraps cc.
func NewCompanyDirectoryClient(cc grpc.ClientConnInterface) *CompanyDirectoryClient {
	return &CompanyDirectoryClient{cc: cc}
}

func (c *CompanyDirectoryClient) ListCompanies(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListCompaniesMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CompanyDirectoryClient) GetCompany(ctx context.Context, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetCompanyMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
