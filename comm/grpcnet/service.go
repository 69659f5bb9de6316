package grpcnet

import (
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"

	"github.com/katalvlaran/gridmm/comm"
)

const (
	serviceName   = "gridmm.comm.Transport"
	deliverMethod = "/" + serviceName + "/Deliver"
)

// inboxServer is what the Deliver handler needs from the registered service.
type inboxServer interface {
	Inbox() *comm.Mailbox
}

// transportServiceDesc describes one client-streaming method: a peer opens a
// Deliver stream, pushes frames in order, half-closes and waits for an ack.
var transportServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*inboxServer)(nil),
	Streams: []grpc.StreamDesc{{
		StreamName:    "Deliver",
		Handler:       deliverHandler,
		ClientStreams: true,
	}},
	Metadata: "gridmm/comm/grpcnet",
}

func deliverHandler(srv any, stream grpc.ServerStream) error {
	in := srv.(inboxServer).Inbox()
	for {
		f := new(comm.Frame)
		err := stream.RecvMsg(f)
		if errors.Is(err, io.EOF) {
			return stream.SendMsg(&comm.Frame{Kind: comm.KindAck})
		}
		if err != nil {
			// The sending process is gone without closing; nothing it owed us will arrive.
			in.Fail(fmt.Errorf("grpcnet: inbound stream lost: %w", err))
			return err
		}
		if err = in.Err(); err != nil && f.Kind == comm.KindData {
			return status.Errorf(codes.Aborted, "grpcnet: %v", err)
		}
		klog.V(4).InfoS("frame received", "src", f.Src, "tag", f.Tag, "ctx", f.Context, "bytes", len(f.Payload))
		in.Deliver(f)
	}
}
