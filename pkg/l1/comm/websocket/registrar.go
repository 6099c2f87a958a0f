package websocket

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/l1"
	"github.com/robotalks/x10.go/pkg/l1/comm"
)

// DefaultPath is where the controller is served.
const DefaultPath = "/l1"

// Registrar implements l1.Registrar by serving websocket connections.
// Every connection gets commands replied on it and all events.
type Registrar struct {
	Addr string
	Path string
	Info l1.ControllerInfo

	lock  sync.Mutex
	conns map[*comm.Registrar]struct{}
}

// NewRegistrar creates a Registrar listening on addr.
func NewRegistrar(addr string, info l1.ControllerInfo) *Registrar {
	return &Registrar{
		Addr:  addr,
		Path:  DefaultPath,
		Info:  info,
		conns: make(map[*comm.Registrar]struct{}),
	}
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	r.lock.Lock()
	regs := make([]*comm.Registrar, 0, len(r.conns))
	for reg := range r.conns {
		regs = append(regs, reg)
	}
	r.lock.Unlock()
	var errs fx.AggregatedError
	for _, reg := range regs {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(r)
}

// Handler returns the HTTP handler serving the meta document at
// Path/meta and websocket connections at Path.
func (r *Registrar) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	path := "/" + strings.Trim(r.Path, "/")
	mux.HandleFunc(path+"/meta", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&r.Info)
	})
	mux.Handle(path, websocket.Handler(func(conn *websocket.Conn) {
		r.serve(ctx, conn)
	}))
	return mux
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.Addr)
	if err != nil {
		return err
	}
	glog.Infof("websocket: serving %s on %s", r.Info.Ref.Name(), ln.Addr())
	server := &http.Server{Handler: r.Handler(ctx)}
	return fx.RunWithContextCancel(ctx, func() { server.Close() }, func() error {
		return server.Serve(ln)
	})
}

func (r *Registrar) serve(ctx context.Context, conn *websocket.Conn) {
	reg := &comm.Registrar{}
	reg.Init(New(conn))
	r.lock.Lock()
	r.conns[reg] = struct{}{}
	r.lock.Unlock()
	glog.V(1).Infof("websocket: %s connected", conn.Request().RemoteAddr)
	err := reg.Run(ctx)
	r.lock.Lock()
	delete(r.conns, reg)
	r.lock.Unlock()
	glog.V(1).Infof("websocket: %s disconnected: %v", conn.Request().RemoteAddr, err)
}
