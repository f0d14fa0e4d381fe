package protocol

// Type identifies the payload schema that follows a Header on the wire.
// Clients use 1-99, responses 100-199, admin commands 200-255.
type Type uint16

const (
	// Client -> server, 1-99.
	TypeHello            Type = 1
	TypeFileUploadStart  Type = 2
	TypeFileUploadChunk  Type = 3
	TypeFileUploadEnd    Type = 4
	TypeCompileRequest   Type = 5
	TypeStatusRequest    Type = 6
	TypeResultRequest    Type = 7
	TypePing             Type = 8

	// Server -> client, 100-199.
	TypeHelloAck        Type = 100
	TypeAck             Type = 101
	TypeCompileResponse Type = 102
	TypeJobStatus       Type = 103
	TypePong            Type = 104
	TypeError           Type = 199

	// Admin channel, 200-255.
	TypeAdminConnect         Type = 200
	TypeAdminListClients     Type = 201
	TypeAdminListJobs        Type = 202
	TypeAdminServerStats     Type = 203
	TypeAdminDisconnect      Type = 204
	TypeAdminKillJob         Type = 205
	TypeAdminServerShutdown  Type = 206
	TypeAdminConfig          Type = 207
	TypeAdminBulkDisconnect  Type = 208
	TypeAdminTextTable       Type = 250
	TypeAdminStatsPayload    Type = 251
	TypeAdminAck             Type = 254
)

// Known reports whether t is a recognised message type.
func (t Type) Known() bool {
	switch {
	case t >= 1 && t <= 99:
		return t == TypeHello || t == TypeFileUploadStart || t == TypeFileUploadChunk ||
			t == TypeFileUploadEnd || t == TypeCompileRequest || t == TypeStatusRequest ||
			t == TypeResultRequest || t == TypePing
	case t >= 100 && t <= 199:
		return t == TypeHelloAck || t == TypeAck || t == TypeCompileResponse ||
			t == TypeJobStatus || t == TypePong || t == TypeError
	case t >= 200 && t <= 255:
		switch t {
		case TypeAdminConnect, TypeAdminListClients, TypeAdminListJobs, TypeAdminServerStats,
			TypeAdminDisconnect, TypeAdminKillJob, TypeAdminServerShutdown, TypeAdminConfig,
			TypeAdminBulkDisconnect, TypeAdminTextTable, TypeAdminStatsPayload, TypeAdminAck:
			return true
		}
		return false
	default:
		return false
	}
}

// Flags are reserved bits carried in the header; unused in v1 and
// ignored on receive, zero on send.
type Flags uint16

const (
	FlagCompressed Flags = 1 << 0
	FlagEncrypted  Flags = 1 << 1
	FlagUrgent     Flags = 1 << 2
	FlagPartial    Flags = 1 << 3
)
