package model

import "time"

// Room types accepted for rooms.type.
const (
	RoomType2D = "2D"
	RoomType3D = "3D"
	RoomType4D = "4D"
)

// Room represents a screening room. A room under maintenance accepts
// neither new sessions nor ticket purchases.
//
// Fields:
//  ID          – UUID primary key.
//  Name        – display name (3..255 characters).
//  Capacity    – number of tickets a session in this room can sell.
//  Type        – projection type (2D, 3D or 4D).
//  Disabled    – accessibility flag shown to customers.
//  Maintenance – whether the room is out of service.
type Room struct {
	ID          string    // rooms.id
	Name        string    // rooms.name
	Capacity    int       // rooms.capacity
	Type        string    // rooms.type
	Disabled    bool      // rooms.disabled
	Maintenance bool      // rooms.maintenance
	CreatedAt   time.Time // rooms.created_at
	UpdatedAt   time.Time // rooms.updated_at
}
