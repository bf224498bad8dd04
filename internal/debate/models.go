package debate

import (
	"time"

	"github.com/lib/pq"
)

// Debate is a single resolution argued by two debaters while spectators
// record pre/post stances against it.
type Debate struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	Resolution string         `gorm:"not null" json:"resolution"`
	ProUserID  string         `gorm:"not null;index" json:"pro_user_id"`
	ConUserID  string         `gorm:"not null;index" json:"con_user_id"`
	Status     string         `gorm:"default:'open'" json:"status"` // open, closed
	Round      int            `gorm:"default:1" json:"round"`
	Tags       pq.StringArray `gorm:"type:text[]" json:"tags"`
	SettledAt  *time.Time     `json:"settled_at,omitempty"` // set once by market settlement
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	Arguments []Argument `gorm:"foreignKey:DebateID" json:"arguments,omitempty"`
}

func (Debate) TableName() string { return "debate.debates" }

// Argument is one debater's contribution in a round. ImpactScore and
// MindChangeCount are written by the opinion market when voters attribute
// their mind change to this argument; nothing else mutates them.
type Argument struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	DebateID        string    `gorm:"not null;index" json:"debate_id"`
	AuthorID        string    `gorm:"not null;index" json:"author_id"`
	Side            string    `gorm:"not null" json:"side"` // pro, con
	Round           int       `gorm:"default:1" json:"round"`
	Content         string    `gorm:"not null" json:"content"`
	Status          string    `gorm:"default:'published'" json:"status"` // published, withdrawn
	ImpactScore     float64   `gorm:"default:0" json:"impact_score"`
	MindChangeCount int       `gorm:"default:0" json:"mind_change_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Argument) TableName() string { return "debate.arguments" }
