package handlers

import (
	"errors"
	"fmt"
	"strconv"

	e "github.com/gartstein/directory/internal/directory/errors"
	"github.com/gartstein/directory/internal/directory/models"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// modelToStruct converts a Company into the Struct sent over gRPC, using the
// same field names as the JSON API.
func (h *CompanyHandler) modelToStruct(company *models.Company) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":       structpb.NewNumberValue(float64(company.ID)),
		"name":     structpb.NewStringValue(company.Name),
		"industry": structpb.NewStringValue(company.Industry),
		"location": structpb.NewStringValue(company.Location),
		"size":     sizeToValue(company.Size),
		"rating":   structpb.NewNumberValue(company.Rating),
	}}
}

func (h *CompanyHandler) modelsToList(companies []models.Company) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(companies))
	for i := range companies {
		values = append(values, structpb.NewStructValue(h.modelToStruct(&companies[i])))
	}
	return &structpb.ListValue{Values: values}
}

// StructToModel converts a Struct received over gRPC back into a Company.
func StructToModel(s *structpb.Struct) (*models.Company, error) {
	if s == nil {
		return nil, errors.New("nil company data")
	}
	f := s.GetFields()
	c := &models.Company{
		ID:       int64(f["id"].GetNumberValue()),
		Name:     f["name"].GetStringValue(),
		Industry: f["industry"].GetStringValue(),
		Location: f["location"].GetStringValue(),
		Rating:   f["rating"].GetNumberValue(),
	}
	switch v := f["size"].GetKind().(type) {
	case *structpb.Value_NumberValue:
		c.Size = models.NumericSize(v.NumberValue)
	case *structpb.Value_StringValue:
		c.Size = models.TextSize(v.StringValue)
	}
	return c, nil
}

func sizeToValue(s models.Size) *structpb.Value {
	if s.Numeric {
		if n, err := strconv.ParseFloat(s.Value, 64); err == nil {
			return structpb.NewNumberValue(n)
		}
	}
	return structpb.NewStringValue(s.Value)
}

// mapServiceError maps domain or repository errors to appropriate gRPC status codes.
func (h *CompanyHandler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, companyNotFound)
	case errors.Is(err, e.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, fmt.Sprintf("internal server error: %v", err))
	}
}
