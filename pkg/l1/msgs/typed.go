package msgs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/x10.go/pkg/framework"
)

// Type ID layout.
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000

	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

var (
	// ErrNotSerializable is returned for messages without a type ID.
	ErrNotSerializable = errors.New("not serializable message")
	// ErrUnsupportedCommand is replied to commands no controller took.
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// UnknownTypeError is returned when decoding a type ID nobody registered.
type UnknownTypeError struct {
	TypeID uint32
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type: %08x", e.TypeID)
}

// SerializableMessage can be sent over the wire.
type SerializableMessage interface {
	fx.Message
	TypeID() uint32
	Serializable() proto.Message
}

var (
	typesLock sync.RWMutex
	types     = make(map[uint32]SerializableMessage)
)

// Register makes messages decodable by their TypeID. It is meant to be
// called from init and panics on conflicting IDs.
func Register(prototypes ...SerializableMessage) {
	typesLock.Lock()
	defer typesLock.Unlock()
	for _, m := range prototypes {
		id := m.TypeID()
		if prev, ok := types[id]; ok && fmt.Sprintf("%T", prev) != fmt.Sprintf("%T", m) {
			panic(fmt.Sprintf("type id %08x registered by %T and %T", id, prev, m))
		}
		types[id] = m
	}
}

// Typed is the envelope on the wire: the type ID, the sequence pairing a
// reply with its command and the encoded message.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence uint32 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message  []byte `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (p *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (p *Typed) Reset() { *p = Typed{} }

// String implements proto.Message.
func (p *Typed) String() string { return proto.CompactTextString(p) }

// TypedMsgHandler receives every decoded packet of a Pipe.
type TypedMsgHandler interface {
	HandleTypedMsg(context.Context, fx.Message, *Typed) error
}

// HandleTypedMsgFunc is func form of TypedMsgHandler.
type HandleTypedMsgFunc func(context.Context, fx.Message, *Typed) error

// HandleTypedMsg implements TypedMsgHandler.
func (f HandleTypedMsgFunc) HandleTypedMsg(ctx context.Context, msg fx.Message, typed *Typed) error {
	return f(ctx, msg, typed)
}

// TypedFrom wraps a message into an envelope with sequence 0.
func TypedFrom(msg fx.Message) (*Typed, error) {
	s, ok := msg.(SerializableMessage)
	if !ok {
		return nil, ErrNotSerializable
	}
	data, err := proto.Marshal(s.Serializable())
	if err != nil {
		return nil, err
	}
	return &Typed{TypeId: s.TypeID(), Message: data}, nil
}

// DecodeTyped decodes a packet into the envelope only.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

// Encode encodes the envelope.
func (p *Typed) Encode() ([]byte, error) {
	return proto.Marshal(p)
}

// Decode decodes the enclosed message by its registered type.
func (p *Typed) Decode() (fx.Message, error) {
	typesLock.RLock()
	prototype, ok := types[p.TypeId]
	typesLock.RUnlock()
	if !ok {
		return nil, &UnknownTypeError{TypeID: p.TypeId}
	}
	msg := prototype.NewMessage()
	if err := proto.Unmarshal(p.Message, msg.(SerializableMessage).Serializable()); err != nil {
		return nil, err
	}
	return msg, nil
}

// Kind is TypeIDKindCommand or TypeIDKindEvent.
func (p *Typed) Kind() uint32 { return p.TypeId & TypeIDMaskKind }

// IsCommand reports a command or a command reply.
func (p *Typed) IsCommand() bool { return p.Kind() == TypeIDKindCommand }

// IsEvent reports an event.
func (p *Typed) IsEvent() bool { return p.Kind() == TypeIDKindEvent }

// IsReply reports a reply to a command.
func (p *Typed) IsReply() bool { return p.IsCommand() && p.TypeId&TypeIDMaskReply != 0 }
