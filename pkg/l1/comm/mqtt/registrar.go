package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang/glog"

	fx "github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/l1"
	"github.com/robotalks/x10.go/pkg/l1/comm"
)

// Registrar announces a controller on the broker and serves its
// command topic.
type Registrar struct {
	Queue  *Queue
	Info   l1.ControllerInfo
	Topics Topics

	meta      []byte
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar. The will clears the retained meta
// when the controller drops off without unregistering.
func NewRegistrar(brokerURL string, info l1.ControllerInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, fmt.Errorf("encode meta of %s: %w", info.Ref.Name(), err)
	}
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	topics := TopicsFor(info.Ref)
	opts.SetBinaryWill(prefix+topics.Meta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("x10:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:  NewQueue(opts, prefix),
		Info:   info,
		Topics: topics,
		meta:   meta,
	}
	r.Queue.OnConnect = r.announce
	r.registrar.Init(ControllerSide(r.Queue, topics))
	return r, nil
}

// SendEvent implements l1.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run keeps the broker connection until ctx is done, then withdraws
// the meta.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(r.Topics.Meta, nil, 1, true).Wait()
	r.Queue.Close()
	return nil
}

// announce runs on every (re)connect.
func (r *Registrar) announce(q *Queue) {
	glog.Infof("mqtt: registered %s", r.Info.Ref.Name())
	q.PubWith(r.Topics.Meta, r.meta, 1, true)
}
