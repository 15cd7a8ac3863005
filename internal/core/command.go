package core

// CommandKind selects which relay operation a Command asks for.
type CommandKind int

const (
	// CommandSendRoomMessage persists a chat message and relays it to the room.
	// The sender does not have to be a member.
	CommandSendRoomMessage CommandKind = iota
	// CommandJoinRoom adds the client to a room and replays its recent history.
	CommandJoinRoom
	// CommandLeaveRoom removes the client from a room. Leaving a room the
	// client is not in does nothing.
	CommandLeaveRoom
)

func (k CommandKind) String() string {
	switch k {
	case CommandSendRoomMessage:
		return "send_message"
	case CommandJoinRoom:
		return "join_room"
	case CommandLeaveRoom:
		return "leave_room"
	default:
		return "unknown"
	}
}

// Command is a client request queued on Client.Commands for the hub.
// Message is only read for CommandSendRoomMessage; its ID and CreatedAt
// are assigned by the hub.
type Command struct {
	Kind    CommandKind
	Room    string
	Message Message
}
