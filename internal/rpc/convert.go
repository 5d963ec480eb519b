package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/swamys/hotfoods/internal/model"
)

// Struct values are converted through their JSON mapping so field names and
// time formats stay identical to the REST payloads.

// StatusToStruct converts a status payload to its wire form.
func StatusToStruct(p model.StatusPayload) (*structpb.Struct, error) {
	return toStruct(p)
}

// StructToStatus converts a wire status payload back to the model.
func StructToStatus(s *structpb.Struct) (*model.StatusPayload, error) {
	var p model.StatusPayload
	if err := fromStruct(s, &p); err != nil {
		return nil, err
	}
	if p.StoreConfig == nil {
		p.StoreConfig = &model.StoreConfig{}
	}
	return &p, nil
}

// UpdateToStruct converts a partial update. Absent fields are left out.
func UpdateToStruct(u model.StoreConfigUpdate) (*structpb.Struct, error) {
	return toStruct(u)
}

// StructToUpdate converts a wire update. A nil Struct is an empty update.
func StructToUpdate(s *structpb.Struct) (model.StoreConfigUpdate, error) {
	var u model.StoreConfigUpdate
	err := fromStruct(s, &u)
	return u, err
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("converting %T to struct: %w", v, err)
	}
	return s, nil
}

func fromStruct(s *structpb.Struct, dst any) error {
	if s == nil {
		return nil
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding struct: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding %T: %w", dst, err)
	}
	return nil
}
