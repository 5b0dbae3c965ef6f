package movement

import (
	"time"
)

// Type distinguishes what a movement does on arrival.
type Type int

const (
	TypeScout Type = iota
	TypeAttack
	TypeOccupy
)

func (t Type) String() string {
	switch t {
	case TypeScout:
		return "scout"
	case TypeAttack:
		return "attack"
	case TypeOccupy:
		return "occupy"
	default:
		return "unknown"
	}
}

// Movement is an in-flight transit of forces between two planets. It
// resolves into a battle log on arrival and is deleted as part of the
// same transaction, so re-delivered arrival events find nothing to do.
type Movement struct {
	ID        int64     `json:"id"`
	StartID   int64     `json:"start_id"`
	EndID     int64     `json:"end_id"`
	UserID    int64     `json:"user_id"`
	Type      Type      `json:"type"`
	EndedAt   time.Time `json:"ended_at"`
	CreatedAt time.Time `json:"created_at"`
}
