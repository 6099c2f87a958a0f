package mqtt

import (
	"encoding/json"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/x10.go/pkg/l1"
)

// Topic kinds under TYPE/ID.
const (
	KindMeta = "meta"
	KindCmd  = "cmd"
	KindMsg  = "msg"
)

// Topics of one controller, relative to the queue prefix.
//
//	x10/pi/meta  retained ControllerMeta JSON, empty once gone
//	x10/pi/cmd   commands from clients
//	x10/pi/msg   replies and events from the controller
type Topics struct {
	Meta string
	Cmd  string
	Msg  string
}

// TopicsFor returns the topics of ref.
func TopicsFor(ref l1.ControllerRef) Topics {
	name := ref.Name()
	return Topics{
		Meta: name + "/" + KindMeta,
		Cmd:  name + "/" + KindCmd,
		Msg:  name + "/" + KindMsg,
	}
}

// SplitTopic is the reverse of TopicsFor.
func SplitTopic(topic string) (ref l1.ControllerRef, kind string, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[0] == "" || items[1] == "" {
		return ref, "", false
	}
	switch items[2] {
	case KindMeta, KindCmd, KindMsg:
	default:
		return ref, "", false
	}
	return l1.ControllerRef{Type: items[0], ID: items[1]}, items[2], true
}

// ParseMetaTopic decodes a TYPE/ID/meta topic with its payload.
func ParseMetaTopic(topic string, payload []byte) (info l1.ControllerInfo, ok bool) {
	ref, kind, ok := SplitTopic(topic)
	if !ok || kind != KindMeta || len(payload) == 0 {
		return info, false
	}
	info.Ref = ref
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.V(1).Infof("mqtt: bad meta on %s: %v", topic, err)
	}
	return info, true
}
