package wire

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements encoding.Codec over plain JSON. No .proto file
// backs these messages — see DESIGN.md for why the service wiring in
// this package hand-authors what protoc-gen-go-grpc would otherwise
// generate. Registering under the name "json" lets callers select it
// per-call with grpc.CallContentSubtype("json") without touching the
// default codec used by any other proto-based service sharing a process.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
