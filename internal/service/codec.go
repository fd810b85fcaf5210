package service

import (
	"encoding/json"
	"fmt"
)

// jsonCodec replaces connect's protobuf-JSON codec so handlers can take
// plain Go structs. It answers to "json", i.e. application/json and
// application/connect+json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}
