package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/robotalks/x10.go/pkg/l1"
	"github.com/robotalks/x10.go/pkg/l1/comm"
)

// DefaultDiscoverTimeout is how long Discover collects retained metas.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector finds and connects controllers through the broker.
type Connector struct {
	DiscoverTimeout time.Duration

	options *paho.ClientOptions
	prefix  string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		prefix:          prefix,
	}, nil
}

func (c *Connector) connect() (*Queue, error) {
	q := NewQueue(c.options, c.prefix)
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		return nil, token.Error()
	}
	return q, nil
}

// Discover implements l1.Connector. Every live controller has a
// retained meta, so all of them arrive right after subscribing.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	q, err := c.connect()
	if err != nil {
		return nil, err
	}
	defer q.Close()

	dur := c.DiscoverTimeout
	if dur <= 0 {
		dur = DefaultDiscoverTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, dur)
	defer cancel()

	found := make(chan l1.ControllerInfo)
	sub := q.Sub("+/+/"+KindMeta, func(topic string, payload []byte) {
		if info, ok := ParseMetaTopic(topic, payload); ok {
			select {
			case found <- info:
			case <-ctx.Done():
			}
		}
	})
	defer sub.Close()
	return collect(ctx, found)
}

// collect gathers unique controllers until ctx is done. Running out of
// time is the normal end, cancellation by the caller is an error.
func collect(ctx context.Context, found <-chan l1.ControllerInfo) ([]l1.ControllerInfo, error) {
	var infos []l1.ControllerInfo
	seen := make(map[l1.ControllerRef]bool)
	for {
		select {
		case info := <-found:
			if !seen[info.Ref] {
				seen[info.Ref] = true
				infos = append(infos, info)
			}
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return infos, nil
			}
			return infos, ctx.Err()
		}
	}
}

// Connect implements l1.Connector.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	q, err := c.connect()
	if err != nil {
		return nil, err
	}
	conn := &ControllerConn{Queue: q}
	conn.Init(ClientSide(q, TopicsFor(ref)))
	return conn, nil
}

// ControllerConn is a comm.ControllerConn over the broker.
type ControllerConn struct {
	comm.ControllerConn
	Queue *Queue
}
