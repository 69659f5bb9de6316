package grpcnet

import (
	"fmt"

	"github.com/katalvlaran/gridmm/comm"
)

// codecName is registered on neither side globally; both ends force it.
const codecName = "gridmm-frame"

// frameCodec puts comm.Frame values on the wire in their binary form, with
// no protobuf envelope.
type frameCodec struct{}

func (frameCodec) Marshal(v any) ([]byte, error) {
	f, ok := v.(*comm.Frame)
	if !ok {
		return nil, fmt.Errorf("grpcnet: cannot marshal %T: %w", v, comm.ErrBadFrame)
	}

	return f.MarshalBinary()
}

func (frameCodec) Unmarshal(data []byte, v any) error {
	f, ok := v.(*comm.Frame)
	if !ok {
		return fmt.Errorf("grpcnet: cannot unmarshal into %T: %w", v, comm.ErrBadFrame)
	}

	return f.UnmarshalBinary(data)
}

func (frameCodec) Name() string { return codecName }
