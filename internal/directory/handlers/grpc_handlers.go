package handlers

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CompanyHandler provides gRPC methods for directory reads,
// mapping requests to a DirectoryController.
type CompanyHandler struct {
	service DirectoryController
	logger  *zap.Logger
}

// NewCompanyHandler constructs a new CompanyHandler with the given service and logger.
func NewCompanyHandler(service DirectoryController, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: service,
		logger:  logger.Named("grpc_handler"),
	}
}

// ListCompanies returns the whole collection.
func (h *CompanyHandler) ListCompanies(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	companies, err := h.service.ListCompanies(ctx)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.modelsToList(companies), nil
}

// GetCompany fetches a company by ID, returning NotFound if absent.
func (h *CompanyHandler) GetCompany(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	company, err := h.service.GetCompany(ctx, req.GetValue())
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return h.modelToStruct(company), nil
}
