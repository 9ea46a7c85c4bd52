package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"stocksage/internal/engine"
	"stocksage/internal/market"
	"stocksage/internal/signal"
)

// Store persists daily bars and finished decisions in one SQLite file. It
// implements market.Source for the engine and engine.Sink for decisions.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&barModel{}, &decisionModel{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertBars writes bars for a symbol; an existing (symbol, date) row is
// overwritten, matching the later-bar-wins rule of market.NewSeries.
func (s *Store) UpsertBars(ctx context.Context, symbol string, bars []market.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	rows := make([]barModel, len(bars))
	for i, b := range bars {
		rows[i] = barModel{
			Symbol: symbol,
			Date:   b.Day(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).Create(&rows).Error
}

// GetSeries implements market.Source. An unknown symbol yields
// market.ErrSymbolNotFound; a known symbol with no bars in range yields an
// empty series.
func (s *Store) GetSeries(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
	var probe barModel
	if err := s.db.WithContext(ctx).Select("id").Where("symbol = ?", symbol).First(&probe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return market.Series{}, fmt.Errorf("%w: %s", market.ErrSymbolNotFound, symbol)
		}
		return market.Series{}, err
	}
	var rows []barModel
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND date >= ? AND date <= ?", symbol, start, end).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return market.Series{}, err
	}
	bars := make([]market.Bar, len(rows))
	for i, r := range rows {
		bars[i] = market.Bar{Date: r.Date, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume}
	}
	return market.NewSeries(symbol, bars), nil
}

// SaveDecision implements engine.Sink.
func (s *Store) SaveDecision(ctx context.Context, res *engine.Result) error {
	voteSummary, err := json.Marshal(res.Decision.VoteSummary)
	if err != nil {
		return err
	}
	signals, err := json.Marshal(res.Decision.Signals)
	if err != nil {
		return err
	}
	warnings, err := json.Marshal(res.Risk.Warnings)
	if err != nil {
		return err
	}
	counts, err := json.Marshal(res.Counts)
	if err != nil {
		return err
	}
	row := decisionModel{
		ID:                 res.ID,
		Symbol:             res.Symbol,
		AsOf:               res.AsOf,
		Decision:           string(res.Decision.Decision),
		Confidence:         res.Decision.Confidence,
		RiskLevel:          string(res.Decision.RiskLevel),
		Approved:           res.Risk.Approved,
		AdjustedDecision:   string(res.Risk.AdjustedDecision),
		PositionSuggestion: res.Risk.PositionSuggestion,
		Reasoning:          res.Decision.Reasoning,
		VoteSummary:        voteSummary,
		Signals:            signals,
		Warnings:           warnings,
		ModelResults:       counts,
		CreatedAt:          time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// DecisionRecord is the query-side view of a stored decision.
type DecisionRecord struct {
	ID                 string          `json:"id"`
	Symbol             string          `json:"symbol"`
	AsOf               time.Time       `json:"as_of"`
	Decision           string          `json:"decision"`
	Confidence         float64         `json:"confidence"`
	RiskLevel          string          `json:"risk_level"`
	Approved           bool            `json:"approved"`
	AdjustedDecision   string          `json:"adjusted_decision"`
	PositionSuggestion float64         `json:"position_suggestion"`
	Reasoning          string          `json:"reasoning"`
	VoteSummary        map[string]int  `json:"vote_summary"`
	Signals            []signal.Signal `json:"contributing_signals"`
	Warnings           []string        `json:"warnings"`
	ModelResults       engine.Counts   `json:"model_results"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ListDecisions returns the newest decisions, optionally filtered by
// symbol.
func (s *Store) ListDecisions(ctx context.Context, symbol string, limit int) ([]DecisionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Model(&decisionModel{}).Order("created_at DESC").Limit(limit)
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	var rows []decisionModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]DecisionRecord, 0, len(rows))
	for _, r := range rows {
		rec := DecisionRecord{
			ID:                 r.ID,
			Symbol:             r.Symbol,
			AsOf:               r.AsOf,
			Decision:           r.Decision,
			Confidence:         r.Confidence,
			RiskLevel:          r.RiskLevel,
			Approved:           r.Approved,
			AdjustedDecision:   r.AdjustedDecision,
			PositionSuggestion: r.PositionSuggestion,
			Reasoning:          r.Reasoning,
			CreatedAt:          r.CreatedAt,
		}
		// Tolerate rows written by older schema revisions.
		_ = json.Unmarshal(r.VoteSummary, &rec.VoteSummary)
		_ = json.Unmarshal(r.Signals, &rec.Signals)
		_ = json.Unmarshal(r.Warnings, &rec.Warnings)
		_ = json.Unmarshal(r.ModelResults, &rec.ModelResults)
		out = append(out, rec)
	}
	return out, nil
}
