package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ballog/ballog-api/internal/domain/schedule"
	"github.com/ballog/ballog-api/internal/domain/stadium"
	qb "github.com/ballog/ballog-api/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

// StadiumRepository reads and lazily creates stadiums. It works against the
// pool or, when built by ScheduleUnitOfWork, against one transaction.
type StadiumRepository struct {
	db queryer
}

func NewStadiumRepository(db *sqlx.DB) *StadiumRepository {
	return &StadiumRepository{db: db}
}

func (r *StadiumRepository) FindMatching(ctx context.Context, name string) ([]stadium.Stadium, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	query, args, err := qb.Select(stadiumColumns...).From("stadiums").
		Where(stadiumNameMatches(name)).
		OrderBy("name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matching stadiums query: %w", err)
	}

	var rows []stadiumTableModel
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matching stadiums: %w", err)
	}

	out := make([]stadium.Stadium, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *StadiumRepository) Create(ctx context.Context, item stadium.Stadium) error {
	if err := item.Validate(); err != nil {
		return err
	}

	query, args, err := qb.InsertModel("stadiums", stadiumRowFromDomain(item), "")
	if err != nil {
		return fmt.Errorf("build insert stadium query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: stadium %q", schedule.ErrConflict, item.Name)
		}
		return fmt.Errorf("insert stadium: %w", err)
	}
	return nil
}

func (r *StadiumRepository) GetByID(ctx context.Context, stadiumID string) (stadium.Stadium, bool, error) {
	query, args, err := qb.Select(stadiumColumns...).From("stadiums").
		Where(qb.Eq("id", stadiumID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return stadium.Stadium{}, false, fmt.Errorf("build select stadium by id query: %w", err)
	}

	var row stadiumTableModel
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return stadium.Stadium{}, false, nil
		}
		return stadium.Stadium{}, false, fmt.Errorf("select stadium by id: %w", err)
	}
	return row.toDomain(), true, nil
}

// stadiumNameMatches mirrors stadium.Matches: either name contains the other,
// ignoring case and surrounding whitespace. strpos keeps LIKE metacharacters
// in provider names literal.
func stadiumNameMatches(name string) qb.Condition {
	return qb.Expr("(strpos(lower(btrim(name)), lower(?)) > 0 OR strpos(lower(?), lower(btrim(name))) > 0)", name, name)
}
