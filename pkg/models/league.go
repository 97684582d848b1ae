package models

import (
	"database/sql"
	"time"
)

// Tier is a named competitive bracket. Users move between tiers only at
// epoch rollover.
type Tier string

const (
	TierFerro    Tier = "ferro"
	TierBronze   Tier = "bronze"
	TierPrata    Tier = "prata"
	TierOuro     Tier = "ouro"
	TierDiamante Tier = "diamante"
)

// Tiers lists all brackets from lowest to highest.
var Tiers = []Tier{TierFerro, TierBronze, TierPrata, TierOuro, TierDiamante}

// Valid reports whether the tier is one of the known brackets.
func (t Tier) Valid() bool {
	for _, known := range Tiers {
		if t == known {
			return true
		}
	}
	return false
}

// Above returns the next-higher tier, or the same tier at the top.
func (t Tier) Above() Tier {
	for i, known := range Tiers {
		if t == known && i < len(Tiers)-1 {
			return Tiers[i+1]
		}
	}
	return t
}

// Below returns the next-lower tier, or the same tier at the bottom.
func (t Tier) Below() Tier {
	for i, known := range Tiers {
		if t == known && i > 0 {
			return Tiers[i-1]
		}
	}
	return t
}

// LeagueMembership is a user's single active league record. WeeklyXP resets
// at epoch rollover; LifetimeXP never resets. LastEpoch marks the most
// recent epoch rollover that processed this row, so a user moved into a
// tier mid-rollover is not moved twice.
type LeagueMembership struct {
	UserID     int64        `json:"user_id" db:"user_id"`
	Tier       Tier         `json:"tier" db:"tier"`
	WeeklyXP   int          `json:"weekly_xp" db:"weekly_xp"`
	LifetimeXP int          `json:"lifetime_xp" db:"lifetime_xp"`
	LastEpoch  sql.NullTime `json:"-" db:"last_epoch"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

// LeagueEntry is one row of a ranked standings view.
type LeagueEntry struct {
	Rank       int    `json:"rank"`
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	Tier       Tier   `json:"tier"`
	WeeklyXP   int    `json:"weekly_xp"`
	LifetimeXP int    `json:"lifetime_xp"`
}

// TierMove is one promotion or relegation decided at epoch rollover.
type TierMove struct {
	UserID   int64 `json:"user_id"`
	To       Tier  `json:"to"`
	Promoted bool  `json:"promoted"`
}

// LeagueEpoch records a completed rollover for one tier. Its presence makes
// re-running the rollover for the same window a no-op.
type LeagueEpoch struct {
	Tier       Tier      `json:"tier" db:"tier"`
	EpochStart time.Time `json:"epoch_start" db:"epoch_start"`
	ClosedAt   time.Time `json:"closed_at" db:"closed_at"`
}
