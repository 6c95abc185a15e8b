// Package pgwire implements the wire-level framing for the frontend side of
// a PostgreSQL-v3-style protocol connection: building the startup packet a
// pooling proxy sends to a backend node, and decoding the handful of backend
// messages the connection-build and version-probe paths need to understand.
package pgwire

// ProtocolVersion is protocol v3.0, sent as the first 4 bytes of the startup
// packet body.
const ProtocolVersion int32 = 0x0003_0000

// StartupBodyCapacity is the fixed capacity of the startup packet's
// parameter block, matching the original implementation's
// MAX_USER_AND_DATABASE bound.
const StartupBodyCapacity = 1024

// Frontend (client → backend) message types.
const (
	MsgPasswordMessage byte = 'p'
	MsgQuery           byte = 'Q'
	MsgTerminate       byte = 'X'
)

// Backend (backend → client) message types this core needs to decode.
const (
	MsgAuthentication  byte = 'R'
	MsgBackendKeyData  byte = 'K'
	MsgCommandComplete byte = 'C'
	MsgDataRow         byte = 'D'
	MsgErrorResponse   byte = 'E'
	MsgNoticeResponse  byte = 'N'
	MsgParameterStatus byte = 'S'
	MsgReadyForQuery   byte = 'Z'
	MsgRowDescription  byte = 'T'
)

// Authentication sub-types carried inside 'R' messages.
const (
	AuthOk                int32 = 0
	AuthKerberosV5        int32 = 2
	AuthCleartextPassword int32 = 3
	AuthMD5Password       int32 = 5
)

// StartupPacket is the encoded wire buffer plus the parsed shorthand fields
// the rest of the core needs (node tagging, logging, round-trip checks).
type StartupPacket struct {
	Raw             []byte
	Length          uint32
	ProtocolMajor   uint16
	ProtocolMinor   uint16
	Database        string
	User            string
	ApplicationName string
}
