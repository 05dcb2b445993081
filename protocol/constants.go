// File: protocol/constants.go
// Package protocol implements the WebSocket message frame layer.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

// Frame opcodes.
const (
	OpcodeContinuation byte = 0x0
	OpcodeText         byte = 0x1
	OpcodeBinary       byte = 0x2
	OpcodeClose        byte = 0x8
	OpcodePing         byte = 0x9
	OpcodePong         byte = 0xA
)

// First header byte bits.
const (
	FinBit  byte = 0x80
	Rsv1Bit byte = 0x40
	Rsv2Bit byte = 0x20
	Rsv3Bit byte = 0x10
)

// Second header byte mask bit.
const MaskBit byte = 0x80

// Close status codes.
const (
	CloseNormal          uint16 = 1000
	CloseGoingAway       uint16 = 1001
	CloseProtocolError   uint16 = 1002
	CloseUnsupportedData uint16 = 1003
	CloseInvalidPayload  uint16 = 1007
	CloseMessageTooBig   uint16 = 1009
	CloseInternalError   uint16 = 1011
)

// IsControlOpcode reports whether op designates a control frame.
func IsControlOpcode(op byte) bool {
	return op >= OpcodeClose
}

// IsDataOpcode reports whether op designates a data frame.
func IsDataOpcode(op byte) bool {
	return op == OpcodeContinuation || op == OpcodeText || op == OpcodeBinary
}
