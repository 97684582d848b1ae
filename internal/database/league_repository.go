package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/provalab/internal/apperr"
	"github.com/example/provalab/pkg/models"
)

// LeagueRepository handles league memberships and the epoch closure ledger.
type LeagueRepository struct {
	db *sqlx.DB
}

// NewLeagueRepository creates a new repository instance.
func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

// GetMembership returns a user's league record, or apperr.ErrNotFound.
func (r *LeagueRepository) GetMembership(ctx context.Context, userID int64) (*models.LeagueMembership, error) {
	query := r.db.Rebind(`SELECT * FROM league_memberships WHERE user_id = ?`)
	var m models.LeagueMembership
	err := r.db.GetContext(ctx, &m, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("get membership", err)
	}
	return &m, nil
}

// CreateMembership inserts a new membership. New users always start in the
// lowest tier.
func (r *LeagueRepository) CreateMembership(ctx context.Context, m *models.LeagueMembership) error {
	if m.Tier == "" {
		m.Tier = models.TierFerro
	}
	query := r.db.Rebind(`
		INSERT INTO league_memberships (user_id, tier, weekly_xp, lifetime_xp)
		VALUES (?, ?, ?, ?)
	`)
	if _, err := r.db.ExecContext(ctx, query, m.UserID, m.Tier, m.WeeklyXP, m.LifetimeXP); err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Validationf("unknown user %d", m.UserID)
		}
		return apperr.Unavailable("create membership", err)
	}
	return nil
}

// AddXP atomically adds to both weekly and lifetime xp.
func (r *LeagueRepository) AddXP(ctx context.Context, userID int64, amount int) error {
	query := r.db.Rebind(`
		UPDATE league_memberships SET
			weekly_xp = weekly_xp + ?,
			lifetime_xp = lifetime_xp + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`)
	result, err := r.db.ExecContext(ctx, query, amount, amount, userID)
	if err != nil {
		return apperr.Unavailable("add xp", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Unavailable("add xp", err)
	}
	if rows == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// TierStandings returns the tier's members joined with usernames, already
// in standings order: weekly xp desc, lifetime xp desc, user id asc.
func (r *LeagueRepository) TierStandings(ctx context.Context, tier models.Tier) ([]models.LeagueEntry, error) {
	query := r.db.Rebind(`
		SELECT m.user_id AS user_id,
		       u.username AS username,
		       m.tier AS tier,
		       m.weekly_xp AS weekly_xp,
		       m.lifetime_xp AS lifetime_xp
		FROM league_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.tier = ?
		ORDER BY m.weekly_xp DESC, m.lifetime_xp DESC, m.user_id ASC
	`)
	var entries []models.LeagueEntry
	if err := r.db.SelectContext(ctx, &entries, query, tier); err != nil {
		return nil, apperr.Unavailable("tier standings", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// EpochClosed reports whether a rollover was already applied for the tier
// and epoch.
func (r *LeagueRepository) EpochClosed(ctx context.Context, tier models.Tier, epochStart time.Time) (bool, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM league_epochs WHERE tier = ? AND epoch_start = ?`)
	var count int
	if err := r.db.GetContext(ctx, &count, query, tier, epochStart); err != nil {
		return false, apperr.Unavailable("epoch closed", err)
	}
	return count > 0, nil
}

// ApplyRollover closes one tier's epoch in a single transaction: it loads
// the members that were in the tier for the closing epoch, asks plan for
// the promotion/relegation moves, applies them, resets every processed
// member's weekly xp and records the closure. Members moved into the tier
// by another tier's rollover of the same epoch carry last_epoch and are
// excluded, so a user is never moved twice per epoch.
//
// Returns false without touching anything when the epoch was already
// closed, which makes re-invocation a no-op.
func (r *LeagueRepository) ApplyRollover(
	ctx context.Context,
	tier models.Tier,
	epochStart time.Time,
	plan func(members []models.LeagueMembership) []models.TierMove,
) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, apperr.Unavailable("begin rollover", err)
	}
	defer tx.Rollback()

	var closed int
	checkQuery := tx.Rebind(`SELECT COUNT(*) FROM league_epochs WHERE tier = ? AND epoch_start = ?`)
	if err := tx.GetContext(ctx, &closed, checkQuery, tier, epochStart); err != nil {
		return false, apperr.Unavailable("check epoch", err)
	}
	if closed > 0 {
		return false, nil
	}

	membersQuery := tx.Rebind(`
		SELECT * FROM league_memberships
		WHERE tier = ? AND (last_epoch IS NULL OR last_epoch < ?)
		ORDER BY weekly_xp DESC, lifetime_xp DESC, user_id ASC
	`)
	var members []models.LeagueMembership
	if err := tx.SelectContext(ctx, &members, membersQuery, tier, epochStart); err != nil {
		return false, apperr.Unavailable("load tier members", err)
	}

	moves := plan(members)
	moved := make(map[int64]models.Tier, len(moves))
	for _, move := range moves {
		moved[move.UserID] = move.To
	}

	updateQuery := tx.Rebind(`
		UPDATE league_memberships SET
			tier = ?,
			weekly_xp = 0,
			last_epoch = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`)
	for _, m := range members {
		target := m.Tier
		if to, ok := moved[m.UserID]; ok {
			target = to
		}
		if _, err := tx.ExecContext(ctx, updateQuery, target, epochStart, m.UserID); err != nil {
			return false, apperr.Unavailable("apply tier move", err)
		}
	}

	closeQuery := tx.Rebind(`INSERT INTO league_epochs (tier, epoch_start) VALUES (?, ?)`)
	if _, err := tx.ExecContext(ctx, closeQuery, tier, epochStart); err != nil {
		return false, apperr.Unavailable("close epoch", err)
	}

	if err := tx.Commit(); err != nil {
		return false, apperr.Unavailable("commit rollover", err)
	}
	return true, nil
}
