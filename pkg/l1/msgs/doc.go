// Package msgs defines the L1 wire envelope shared by x10d and its
// clients, and the generic command replies.
//
// Every packet is a protobuf encoded Typed carrying a 32 bit type ID:
//
//	bit 31      kind, 0 command, 1 event
//	bits 16-30  group, e.g. GroupX10
//	bit 15      reply flag
//	bits 0-14   message within the group
//
// Replies to a command carry the command's sequence number. Events have
// sequence 0.
package msgs
