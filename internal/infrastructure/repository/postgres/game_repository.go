package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ballog/ballog-api/internal/domain/game"
	"github.com/ballog/ballog-api/internal/domain/schedule"
	qb "github.com/ballog/ballog-api/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

// GameRepository persists games. Inside a unit of work FindByKey locks the
// matched row so the following UpdateResult cannot interleave with another
// writer.
type GameRepository struct {
	db     queryer
	lockTx bool
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) FindByKey(ctx context.Context, key game.Key) (game.Game, bool, error) {
	builder := qb.Select(gameColumns...).From("games").
		Where(
			qb.Eq("game_date_time", utc(key.DateTime)),
			qb.Eq("home_team_id", key.HomeTeamID),
			qb.Eq("away_team_id", key.AwayTeamID),
		).
		Limit(1)
	if r.lockTx {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build select game by key query: %w", err)
	}

	var row gameTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("select game by key: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *GameRepository) Create(ctx context.Context, item game.Game) error {
	if err := item.Validate(); err != nil {
		return err
	}

	query, args, err := qb.InsertModel("games", gameInsertFromDomain(item), "")
	if err != nil {
		return fmt.Errorf("build insert game query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: game %s", schedule.ErrConflict, item.Key().String())
		}
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (r *GameRepository) UpdateResult(ctx context.Context, gameID string, result game.Result, updatedAt time.Time) error {
	query, args, err := qb.Update("games").
		Set("home_score", result.HomeScore).
		Set("away_score", result.AwayScore).
		Set("status", string(result.Status)).
		SetExpr("external_id", "COALESCE(NULLIF(?, ''), external_id)", result.ExternalID).
		Set("updated_at", utc(updatedAt)).
		Where(qb.Eq("id", gameID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update game result query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update game result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read update game result rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("game %s not found", gameID)
	}
	return nil
}

func (r *GameRepository) ListBetween(ctx context.Context, from, to time.Time) ([]game.Game, error) {
	query, args, err := qb.Select(gameColumns...).From("games").
		Where(
			qb.Gte("game_date_time", utc(from)),
			qb.Lt("game_date_time", utc(to)),
		).
		OrderBy("game_date_time", "home_team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games between query: %w", err)
	}

	var rows []gameTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games between: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
