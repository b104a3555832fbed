package live

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Model struct {
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// StatusSnapshot is one server status report
type StatusSnapshot struct {
	Model

	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	VPN       string    `json:"vpn"`
	Server    string    `json:"server"`
	EventName string    `json:"event-name"`
	EventDate string    `json:"event-date"`
	Players   int       `json:"players"`
	Ping      int       `json:"ping"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`
}

// Account is a ranked game account
type Account struct {
	AccountID     int64  `json:"account_id"`
	UserID        string `json:"userid"`
	LoginCount    int64  `json:"logincount"`
	TotalCards    int64  `json:"total_cards"`
	TotalMVPCards int64  `json:"total_mvp_cards"`
	TotalZeny     int64  `json:"total_zeny"`
	TotalDiamonds int64  `json:"total_diamonds"`
}

// Character is a ranked character
type Character struct {
	AccountID int64  `json:"account_id"`
	UserID    string `json:"userid"`
	Name      string `json:"name"`
	Class     int    `json:"class"`
	BaseLevel int    `json:"base_level"`
	BaseExp   int64  `json:"base_exp"`
	JobExp    int64  `json:"job_exp"`
	Fame      int64  `json:"fame"`
}

// Rankings is the ranking payload exported by the game server
type Rankings struct {
	Accounts []Account              `json:"accounts"`
	ByClass  map[string][]Character `json:"byClass"`
	Overall  []Character            `json:"overall"`
}

// RankingSnapshot stores one Rankings export as a JSON column
type RankingSnapshot struct {
	Model

	ID        uuid.UUID                    `json:"id" gorm:"type:uuid;primaryKey"`
	Data      datatypes.JSONType[Rankings] `json:"data"`
	Timestamp time.Time                    `json:"timestamp" gorm:"index"`
}

// Build is one run of the artifact pipeline
type Build struct {
	Date     time.Time `json:"date" gorm:"primaryKey"`
	Source   string    `json:"source"` // the input root the artifacts were built from
	Output   string    `json:"output"`
	Items    int       `json:"items"`
	Mobs     int       `json:"mobs"`
	Failed   int       `json:"failed"`
	Complete bool      `json:"complete"`
}

func (s *StatusSnapshot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	return nil
}

func (r *RankingSnapshot) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return nil
}
