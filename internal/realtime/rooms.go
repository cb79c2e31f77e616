package realtime

import (
	"strconv"
	"strings"
)

const (
	ticketRoomPrefix = "ticket:"
	listRoomName     = "list"
)

// TicketRoom is the room of everyone viewing one ticket's forms.
func TicketRoom(ticketID int64) string {
	return ticketRoomPrefix + strconv.FormatInt(ticketID, 10)
}

// ListRoom is the room of list-page viewers, optionally narrowed by scope (e.g. a queue name).
func ListRoom(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return listRoomName
	}
	return listRoomName + ":" + scope
}

// ValidRoom reports whether key belongs to one of the two room families.
func ValidRoom(key string) bool {
	if key == listRoomName || strings.HasPrefix(key, listRoomName+":") {
		return true
	}
	if rest, ok := strings.CutPrefix(key, ticketRoomPrefix); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		return err == nil && id > 0
	}
	return false
}
