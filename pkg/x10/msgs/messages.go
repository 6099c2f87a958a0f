package msgs

import (
	"fmt"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/x10.go/pkg/framework"
	"github.com/robotalks/x10.go/pkg/l1/msgs"
	"github.com/robotalks/x10.go/pkg/x10"
)

// X10Send transmits a frame pair. With Unit 0 only the function frame
// is sent, with an empty Function only the unit frame.
type X10Send struct {
	House    string `protobuf:"bytes,1,opt,name=house,proto3" json:"house,omitempty"`
	Unit     uint32 `protobuf:"varint,2,opt,name=unit,proto3" json:"unit,omitempty"`
	Function string `protobuf:"bytes,3,opt,name=function,proto3" json:"function,omitempty"`
	Repeat   uint32 `protobuf:"varint,4,opt,name=repeat,proto3" json:"repeat,omitempty"`
}

// NewMessage implements Message.
func (m *X10Send) NewMessage() fx.Message { return &X10Send{} }

// TypeID implements SerializableMessage.
func (m *X10Send) TypeID() uint32 { return X10SendTypeID }

// Serializable implements SerializableMessage.
func (m *X10Send) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *X10Send) ProtoMessage() {}

// Reset implements proto.Message.
func (m *X10Send) Reset() { *m = X10Send{} }

// String implements proto.Message.
func (m *X10Send) String() string { return proto.CompactTextString(m) }

// X10StatusQuery queries the transceiver status.
type X10StatusQuery struct {
}

// NewMessage implements Message.
func (m *X10StatusQuery) NewMessage() fx.Message { return &X10StatusQuery{} }

// TypeID implements SerializableMessage.
func (m *X10StatusQuery) TypeID() uint32 { return X10StatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *X10StatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *X10StatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *X10StatusQuery) Reset() { *m = X10StatusQuery{} }

// String implements proto.Message.
func (m *X10StatusQuery) String() string { return proto.CompactTextString(m) }

// X10Calibrate measures the mains frequency again, replied with X10Status.
type X10Calibrate struct {
}

// NewMessage implements Message.
func (m *X10Calibrate) NewMessage() fx.Message { return &X10Calibrate{} }

// TypeID implements SerializableMessage.
func (m *X10Calibrate) TypeID() uint32 { return X10CalibrateTypeID }

// Serializable implements SerializableMessage.
func (m *X10Calibrate) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *X10Calibrate) ProtoMessage() {}

// Reset implements proto.Message.
func (m *X10Calibrate) Reset() { *m = X10Calibrate{} }

// String implements proto.Message.
func (m *X10Calibrate) String() string { return proto.CompactTextString(m) }

// X10ProgramXTB sets a mode option of an XTB-IIR interface.
type X10ProgramXTB struct {
	House  string `protobuf:"bytes,1,opt,name=house,proto3" json:"house,omitempty"`
	Mode   uint32 `protobuf:"varint,2,opt,name=mode,proto3" json:"mode,omitempty"`
	Enable bool   `protobuf:"varint,3,opt,name=enable,proto3" json:"enable,omitempty"`
}

// NewMessage implements Message.
func (m *X10ProgramXTB) NewMessage() fx.Message { return &X10ProgramXTB{} }

// TypeID implements SerializableMessage.
func (m *X10ProgramXTB) TypeID() uint32 { return X10ProgramXTBTypeID }

// Serializable implements SerializableMessage.
func (m *X10ProgramXTB) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *X10ProgramXTB) ProtoMessage() {}

// Reset implements proto.Message.
func (m *X10ProgramXTB) Reset() { *m = X10ProgramXTB{} }

// String implements proto.Message.
func (m *X10ProgramXTB) String() string { return proto.CompactTextString(m) }

// X10Status is the reply of X10StatusQuery and X10Calibrate.
type X10Status struct {
	Timing     *X10Timing  `protobuf:"bytes,1,opt,name=timing,proto3" json:"timing,omitempty"`
	MeasuredHz uint32      `protobuf:"varint,2,opt,name=measured_hz,proto3" json:"measured_hz,omitempty"`
	Last       *X10Command `protobuf:"bytes,3,opt,name=last,proto3" json:"last,omitempty"`
	Ready      bool        `protobuf:"varint,4,opt,name=ready,proto3" json:"ready,omitempty"`
	Frames     uint64      `protobuf:"varint,5,opt,name=frames,proto3" json:"frames,omitempty"`
	Commands   uint64      `protobuf:"varint,6,opt,name=commands,proto3" json:"commands,omitempty"`
	Rejected   uint64      `protobuf:"varint,7,opt,name=rejected,proto3" json:"rejected,omitempty"`
	Repeats    uint64      `protobuf:"varint,8,opt,name=repeats,proto3" json:"repeats,omitempty"`
}

// NewMessage implements Message.
func (m *X10Status) NewMessage() fx.Message { return &X10Status{} }

// TypeID implements SerializableMessage.
func (m *X10Status) TypeID() uint32 { return X10StatusTypeID }

// Serializable implements SerializableMessage.
func (m *X10Status) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *X10Status) ProtoMessage() {}

// Reset implements proto.Message.
func (m *X10Status) Reset() { *m = X10Status{} }

// String implements proto.Message.
func (m *X10Status) String() string { return proto.CompactTextString(m) }

// X10Received is the event emitted for every received unit/function pair.
type X10Received struct {
	Command *X10Command `protobuf:"bytes,1,opt,name=command,proto3" json:"command,omitempty"`
}

// NewMessage implements Message.
func (m *X10Received) NewMessage() fx.Message { return &X10Received{} }

// TypeID implements SerializableMessage.
func (m *X10Received) TypeID() uint32 { return X10ReceivedEventTypeID }

// Serializable implements SerializableMessage.
func (m *X10Received) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *X10Received) ProtoMessage() {}

// Reset implements proto.Message.
func (m *X10Received) Reset() { *m = X10Received{} }

// String implements proto.Message.
func (m *X10Received) String() string { return proto.CompactTextString(m) }

// X10Sent is the event emitted after the controller transmitted a
// function. The transmitter can't hear itself, so this is how clients
// learn about commands issued through the controller.
type X10Sent struct {
	Command *X10Command `protobuf:"bytes,1,opt,name=command,proto3" json:"command,omitempty"`
}

// NewMessage implements Message.
func (m *X10Sent) NewMessage() fx.Message { return &X10Sent{} }

// TypeID implements SerializableMessage.
func (m *X10Sent) TypeID() uint32 { return X10SentEventTypeID }

// Serializable implements SerializableMessage.
func (m *X10Sent) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *X10Sent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *X10Sent) Reset() { *m = X10Sent{} }

// String implements proto.Message.
func (m *X10Sent) String() string { return proto.CompactTextString(m) }

// X10Timing describes a timing profile, durations in microseconds.
type X10Timing struct {
	MainsHz        uint32 `protobuf:"varint,1,opt,name=mains_hz,proto3" json:"mains_hz,omitempty"`
	BitLength      uint32 `protobuf:"varint,2,opt,name=bit_length,proto3" json:"bit_length,omitempty"`
	BitDelay       uint32 `protobuf:"varint,3,opt,name=bit_delay,proto3" json:"bit_delay,omitempty"`
	OffsetDelay    uint32 `protobuf:"varint,4,opt,name=offset_delay,proto3" json:"offset_delay,omitempty"`
	HalfCycleDelay uint32 `protobuf:"varint,5,opt,name=half_cycle_delay,proto3" json:"half_cycle_delay,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *X10Timing) ProtoMessage() {}

// Reset implements proto.Message.
func (m *X10Timing) Reset() { *m = X10Timing{} }

// String implements proto.Message.
func (m *X10Timing) String() string { return proto.CompactTextString(m) }

// X10Command is a decoded unit/function pair with the raw patterns.
type X10Command struct {
	Start           uint32 `protobuf:"varint,1,opt,name=start,proto3" json:"start,omitempty"`
	House           string `protobuf:"bytes,2,opt,name=house,proto3" json:"house,omitempty"`
	HousePattern    uint32 `protobuf:"varint,3,opt,name=house_pattern,proto3" json:"house_pattern,omitempty"`
	Unit            uint32 `protobuf:"varint,4,opt,name=unit,proto3" json:"unit,omitempty"`
	UnitPattern     uint32 `protobuf:"varint,5,opt,name=unit_pattern,proto3" json:"unit_pattern,omitempty"`
	Function        string `protobuf:"bytes,6,opt,name=function,proto3" json:"function,omitempty"`
	FunctionPattern uint32 `protobuf:"varint,7,opt,name=function_pattern,proto3" json:"function_pattern,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *X10Command) ProtoMessage() {}

// Reset implements proto.Message.
func (m *X10Command) Reset() { *m = X10Command{} }

// String implements proto.Message.
func (m *X10Command) String() string { return proto.CompactTextString(m) }

// TimingFrom converts a profile.
func TimingFrom(p x10.Profile) *X10Timing {
	return &X10Timing{
		MainsHz:        uint32(p.MainsFrequency),
		BitLength:      uint32(p.BitLength.Microseconds()),
		BitDelay:       uint32(p.BitDelay.Microseconds()),
		OffsetDelay:    uint32(p.OffsetDelay.Microseconds()),
		HalfCycleDelay: uint32(p.HalfCycleDelay.Microseconds()),
	}
}

// CommandFrom converts a decoded pair.
func CommandFrom(c x10.Command) *X10Command {
	return &X10Command{
		Start:           uint32(c.Start),
		House:           c.House.String(),
		HousePattern:    uint32(c.HousePattern),
		Unit:            uint32(c.Unit),
		UnitPattern:     uint32(c.UnitPattern),
		Function:        c.Function.String(),
		FunctionPattern: uint32(c.Function),
	}
}

// TypeIDs
const (
	X10SendTypeID          uint32 = msgs.GroupX10 | 0x0000
	X10StatusQueryTypeID   uint32 = msgs.GroupX10 | 0x0001
	X10StatusTypeID        uint32 = X10StatusQueryTypeID | msgs.TypeIDMaskReply
	X10CalibrateTypeID     uint32 = msgs.GroupX10 | 0x0002
	X10ProgramXTBTypeID    uint32 = msgs.GroupX10 | 0x0003
	X10ReceivedEventTypeID uint32 = msgs.GroupX10 | msgs.TypeIDKindEvent | 0x0000
	X10SentEventTypeID     uint32 = msgs.GroupX10 | msgs.TypeIDKindEvent | 0x0001
)

func init() {
	msgs.Register(
		(*X10Send)(nil),
		(*X10StatusQuery)(nil),
		(*X10Status)(nil),
		(*X10Calibrate)(nil),
		(*X10ProgramXTB)(nil),
		(*X10Received)(nil),
		(*X10Sent)(nil),
	)
}

// Summary formats the pair as on the console of an X10 controller,
// e.g. "A1 ON" or "P ALL_UNITS_OFF".
func (m *X10Command) Summary() string {
	if m.Unit == 0 {
		return m.House + " " + m.Function
	}
	return fmt.Sprintf("%s%d %s", m.House, m.Unit, m.Function)
}
