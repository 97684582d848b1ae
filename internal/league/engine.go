// Package league maintains the weekly tiered leaderboard: xp accumulation,
// deterministic standings, windowed views and the epoch rollover with
// promotion and relegation.
package league

import (
	"context"
	"errors"
	"time"

	"github.com/example/provalab/internal/apperr"
	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/pkg/models"
)

// Store is the persistence the engine needs. Implemented by
// database.LeagueRepository.
type Store interface {
	GetMembership(ctx context.Context, userID int64) (*models.LeagueMembership, error)
	CreateMembership(ctx context.Context, m *models.LeagueMembership) error
	AddXP(ctx context.Context, userID int64, amount int) error
	TierStandings(ctx context.Context, tier models.Tier) ([]models.LeagueEntry, error)
	ApplyRollover(ctx context.Context, tier models.Tier, epochStart time.Time,
		plan func(members []models.LeagueMembership) []models.TierMove) (bool, error)
}

// StandingsCache is an optional snapshot cache in front of the store.
// Implemented by cache.Leaderboard.
type StandingsCache interface {
	Get(ctx context.Context, tier models.Tier) ([]models.LeagueEntry, bool)
	Set(ctx context.Context, tier models.Tier, entries []models.LeagueEntry)
	Invalidate(ctx context.Context, tiers ...models.Tier)
}

// Config holds the rollover band sizes.
type Config struct {
	PromoteCount  int // members promoted per tier per epoch
	RelegateCount int // members relegated per tier per epoch
	MinTierSize   int // relegation is skipped if it would shrink a tier below this
}

// DefaultConfig returns the standard band sizes.
func DefaultConfig() Config {
	return Config{PromoteCount: 3, RelegateCount: 3, MinTierSize: 5}
}

// Engine is the league ranking engine.
type Engine struct {
	store Store
	cache StandingsCache // may be nil
	cfg   Config
	log   *logger.Logger
}

// NewEngine creates an engine. cache may be nil when redis is disabled.
func NewEngine(store Store, cache StandingsCache, cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		store: store,
		cache: cache,
		cfg:   cfg,
		log:   log.With("component", "league"),
	}
}

// EnsureMembership returns the user's membership, creating one in the
// lowest tier on first contact.
func (e *Engine) EnsureMembership(ctx context.Context, userID int64) (*models.LeagueMembership, error) {
	m, err := e.store.GetMembership(ctx, userID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	m = &models.LeagueMembership{UserID: userID, Tier: models.TierFerro}
	if err := e.store.CreateMembership(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ApplyXPDelta adds xp to the user's weekly and lifetime totals, creating
// the membership if needed.
func (e *Engine) ApplyXPDelta(ctx context.Context, userID int64, amount int) error {
	m, err := e.EnsureMembership(ctx, userID)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	if err := e.store.AddXP(ctx, userID, amount); err != nil {
		return err
	}
	if e.cache != nil {
		e.cache.Invalidate(ctx, m.Tier)
	}
	return nil
}

// Standings returns the ranked members of a tier: weekly xp descending,
// lifetime xp descending, user id ascending. Served from the snapshot
// cache when one is fresh.
func (e *Engine) Standings(ctx context.Context, tier models.Tier) ([]models.LeagueEntry, error) {
	if !tier.Valid() {
		return nil, apperr.Validationf("unknown tier %q", tier)
	}
	if e.cache != nil {
		if entries, ok := e.cache.Get(ctx, tier); ok {
			return entries, nil
		}
	}
	entries, err := e.store.TierStandings(ctx, tier)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(ctx, tier, entries)
	}
	return entries, nil
}

// WindowedView returns windowSize consecutive ranked members of the user's
// tier with the user as close to the center as the edges allow. The whole
// window comes from one standings snapshot, so ranks are contiguous with
// no duplicates.
func (e *Engine) WindowedView(ctx context.Context, userID int64, windowSize int) ([]models.LeagueEntry, error) {
	if windowSize < 1 {
		return nil, apperr.Validationf("window size must be positive, got %d", windowSize)
	}
	m, err := e.EnsureMembership(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := e.Standings(ctx, m.Tier)
	if err != nil {
		return nil, err
	}

	rank := rankOf(entries, userID)
	if rank == 0 {
		// The cached snapshot predates this user's membership. Refresh
		// from the store.
		entries, err = e.store.TierStandings(ctx, m.Tier)
		if err != nil {
			return nil, err
		}
		if e.cache != nil {
			e.cache.Set(ctx, m.Tier, entries)
		}
		rank = rankOf(entries, userID)
		if rank == 0 {
			return nil, apperr.Unavailable("windowed view", errors.New("user missing from standings"))
		}
	}
	return Window(entries, rank, windowSize), nil
}

func rankOf(entries []models.LeagueEntry, userID int64) int {
	for _, entry := range entries {
		if entry.UserID == userID {
			return entry.Rank
		}
	}
	return 0
}

// Window slices windowSize consecutive entries around the 1-indexed rank,
// clamped to the list edges.
func Window(entries []models.LeagueEntry, rank, windowSize int) []models.LeagueEntry {
	n := len(entries)
	if n <= windowSize {
		return entries
	}
	half := (windowSize + 1) / 2
	switch {
	case rank <= half:
		return entries[:windowSize]
	case rank > n-(windowSize-half):
		return entries[n-windowSize:]
	default:
		start := rank - half
		return entries[start : start+windowSize]
	}
}

// RolloverEpoch closes one tier for the epoch starting at epochStart:
// the top PromoteCount move up, the bottom RelegateCount move down, every
// processed member's weekly xp resets, lifetime xp is untouched. The whole
// step is one transaction and re-running it for a closed epoch is a no-op.
func (e *Engine) RolloverEpoch(ctx context.Context, tier models.Tier, epochStart time.Time) error {
	if !tier.Valid() {
		return apperr.Validationf("unknown tier %q", tier)
	}
	applied, err := e.store.ApplyRollover(ctx, tier, epochStart, func(members []models.LeagueMembership) []models.TierMove {
		return PlanRollover(tier, members, e.cfg)
	})
	if err != nil {
		return err
	}
	if !applied {
		e.log.Info("epoch already closed", "tier", tier, "epoch_start", epochStart)
		return nil
	}
	if e.cache != nil {
		e.cache.Invalidate(ctx, tier, tier.Above(), tier.Below())
	}
	e.log.Info("epoch closed", "tier", tier, "epoch_start", epochStart)
	return nil
}

// RolloverAll closes every tier for the epoch that ended before now.
func (e *Engine) RolloverAll(ctx context.Context, now time.Time) error {
	epochStart := PreviousEpochStart(now)
	for _, tier := range models.Tiers {
		if err := e.RolloverEpoch(ctx, tier, epochStart); err != nil {
			return err
		}
	}
	return nil
}

// PlanRollover decides the promotion and relegation moves for a tier's
// final standings. members must already be in standings order. Promotion
// is a no-op at the highest tier, relegation at the lowest, and relegation
// is skipped entirely when it would leave the tier below MinTierSize.
func PlanRollover(tier models.Tier, members []models.LeagueMembership, cfg Config) []models.TierMove {
	var moves []models.TierMove
	n := len(members)

	promoted := 0
	if above := tier.Above(); above != tier {
		for i := 0; i < cfg.PromoteCount && i < n; i++ {
			moves = append(moves, models.TierMove{UserID: members[i].UserID, To: above, Promoted: true})
			promoted++
		}
	}

	if below := tier.Below(); below != tier {
		if n-cfg.RelegateCount >= cfg.MinTierSize {
			start := n - cfg.RelegateCount
			if start < promoted {
				// Never relegate someone who was just promoted.
				start = promoted
			}
			for i := start; i < n; i++ {
				moves = append(moves, models.TierMove{UserID: members[i].UserID, To: below})
			}
		}
	}
	return moves
}

// EpochStart returns Monday 00:00 UTC of the week containing t.
func EpochStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	// time.Weekday has Sunday = 0; shift so Monday starts the week.
	offset := (weekday + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

// PreviousEpochStart returns the start of the epoch before the one
// containing t. This is the epoch a rollover running just after the
// boundary should close.
func PreviousEpochStart(t time.Time) time.Time {
	return EpochStart(t).AddDate(0, 0, -7)
}
