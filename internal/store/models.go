package store

import (
	"time"

	"gorm.io/datatypes"
)

type barModel struct {
	ID     int64     `gorm:"column:id;primaryKey"`
	Symbol string    `gorm:"column:symbol;uniqueIndex:idx_symbol_date,priority:1"`
	Date   time.Time `gorm:"column:date;uniqueIndex:idx_symbol_date,priority:2"`
	Open   float64   `gorm:"column:open"`
	High   float64   `gorm:"column:high"`
	Low    float64   `gorm:"column:low"`
	Close  float64   `gorm:"column:close"`
	Volume float64   `gorm:"column:volume"`
}

func (barModel) TableName() string { return "daily_bars" }

type decisionModel struct {
	ID                 string         `gorm:"column:id;primaryKey"`
	Symbol             string         `gorm:"column:symbol;index"`
	AsOf               time.Time      `gorm:"column:as_of"`
	Decision           string         `gorm:"column:decision"`
	Confidence         float64        `gorm:"column:confidence"`
	RiskLevel          string         `gorm:"column:risk_level"`
	Approved           bool           `gorm:"column:approved"`
	AdjustedDecision   string         `gorm:"column:adjusted_decision"`
	PositionSuggestion float64        `gorm:"column:position_suggestion"`
	Reasoning          string         `gorm:"column:reasoning"`
	VoteSummary        datatypes.JSON `gorm:"column:vote_summary"`
	Signals            datatypes.JSON `gorm:"column:signals"`
	Warnings           datatypes.JSON `gorm:"column:warnings"`
	ModelResults       datatypes.JSON `gorm:"column:model_results"`
	CreatedAt          time.Time      `gorm:"column:created_at"`
}

func (decisionModel) TableName() string { return "decisions" }
