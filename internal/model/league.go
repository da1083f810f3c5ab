package model

import (
	"strings"
	"time"
)

type League struct {
	LeagueID    int64
	Name        string
	OwnerID     string
	OwnerName   string // best-effort, filled from profiles when available
	StartTime   *time.Time
	FinishTime  *time.Time
	HasTrading  bool
	HasDrafting bool
	Sectors     []string
	CreatedAt   time.Time
}

type LeagueParams struct {
	Name        string
	StartTime   *time.Time
	FinishTime  *time.Time
	HasTrading  bool
	HasDrafting bool
	DraftRounds int
	Sectors     string // raw comma-separated input
}

// ParseSectors splits a comma-separated sector list, trimming entries and
// dropping empty ones. An empty input yields nil.
func ParseSectors(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	sectors := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sectors = append(sectors, s)
		}
	}

	if len(sectors) == 0 {
		return nil
	}
	return sectors
}

type Draft struct {
	DraftID            int64
	LeagueID           int64
	TotalRounds        int
	CurrentRound       int
	CurrentPick        int
	CurrentPortfolioID int64
	IsSnakingForward   bool
	TimerStartTime     *time.Time
	IsStarted          bool
	IsEnded            bool
}

// LeagueView is a league with its draft state, when one exists.
type LeagueView struct {
	League League
	Draft  *Draft
}

type LeagueResult struct {
	LeagueID    int64
	PortfolioID int64
	DraftID     int64  // 0 when drafting is disabled or the draft insert failed
	DraftError  string // non-empty when the best-effort draft insert failed
}

type JoinResult struct {
	LeagueID    int64
	PortfolioID int64
}
