package mqtt

import (
	"context"
	"io"

	"github.com/golang/glog"
)

// PacketBacklog is the number of received packets buffered for the reader.
const PacketBacklog = 16

// ReadWriter carries L1 packets over a pair of topics: it reads from
// one and writes to the other.
type ReadWriter struct {
	Queue *Queue
	In    string
	Out   string

	packetCh chan []byte
	doneCh   chan struct{}
}

func newReadWriter(q *Queue, in, out string) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		In:       in,
		Out:      out,
		packetCh: make(chan []byte, PacketBacklog),
		doneCh:   make(chan struct{}),
	}
}

// ControllerSide reads commands and writes replies and events.
func ControllerSide(q *Queue, t Topics) *ReadWriter {
	return newReadWriter(q, t.Cmd, t.Msg)
}

// ClientSide reads replies and events and writes commands.
func ClientSide(q *Queue, t Topics) *ReadWriter {
	return newReadWriter(q, t.Msg, t.Cmd)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.doneCh:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.Out, pkt)
	token.Wait()
	return token.Error()
}

// Run subscribes until ctx is done, then unblocks the reader.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.In, p.enqueue)
	<-ctx.Done()
	sub.Close()
	close(p.doneCh)
	return ctx.Err()
}

// enqueue runs on the paho dispatcher and must not block once the
// reader is gone.
func (p *ReadWriter) enqueue(topic string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.doneCh:
		glog.V(2).Infof("mqtt: %s dropped after close", topic)
	}
}
