package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/content-curator/internal/types"
)

const contentColumns = `id, course_name, major_category, middle_category, minor_category,
	level0, level1, level2, level3, course_intro, learning_objective, target_audience,
	curriculum, detail_content, education_fee, sessions, development_year`

var fieldColumns = map[types.CatalogField]string{
	types.FieldTitle:          "course_name",
	types.FieldIntro:          "course_intro",
	types.FieldObjective:      "learning_objective",
	types.FieldMajorCategory:  "major_category",
	types.FieldMiddleCategory: "middle_category",
	types.FieldMinorCategory:  "minor_category",
}

// Catalog items are ordered newest first; ties and missing years fall back to id.
const recencyOrder = `ORDER BY development_year DESC NULLS LAST, id ASC`

// SearchItems returns items where any query keyword occurs (case-insensitive)
// in any of the query fields.
func (db *DB) SearchItems(ctx context.Context, q types.CatalogQuery) ([]types.CatalogItem, error) {
	sql, args, err := buildSearchQuery(q)
	if err != nil {
		return nil, err
	}
	return db.queryItems(ctx, "search catalog", sql, args...)
}

// RecentItems returns the newest limit items.
func (db *DB) RecentItems(ctx context.Context, limit int) ([]types.CatalogItem, error) {
	return db.queryItems(ctx, "list recent catalog items",
		`SELECT `+contentColumns+` FROM contents `+recencyOrder+` LIMIT $1`, limit)
}

// GetItem returns one catalog item, or nil when it does not exist.
func (db *DB) GetItem(ctx context.Context, id int64) (*types.CatalogItem, error) {
	items, err := db.queryItems(ctx, "get catalog item",
		`SELECT `+contentColumns+` FROM contents WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// ListItemsPage returns up to limit items with id > afterID in id order.
// With missingOnly, items that already have an embedding are skipped.
func (db *DB) ListItemsPage(ctx context.Context, afterID int64, limit int, missingOnly bool) ([]types.CatalogItem, error) {
	sql := `SELECT ` + contentColumns + ` FROM contents c WHERE c.id > $1`
	if missingOnly {
		sql += ` AND NOT EXISTS (SELECT 1 FROM content_embeddings e WHERE e.content_id = c.id)`
	}
	sql += ` ORDER BY c.id ASC LIMIT $2`
	return db.queryItems(ctx, "list catalog page", sql, afterID, limit)
}

// CountItems returns the catalog size, or the number of items lacking an
// embedding when missingOnly is set.
func (db *DB) CountItems(ctx context.Context, missingOnly bool) (int, error) {
	sql := `SELECT COUNT(*) FROM contents c`
	if missingOnly {
		sql += ` WHERE NOT EXISTS (SELECT 1 FROM content_embeddings e WHERE e.content_id = c.id)`
	}
	var n int
	if err := db.pool.QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count catalog items: %w", err)
	}
	return n, nil
}

func (db *DB) queryItems(ctx context.Context, op, sql string, args ...any) ([]types.CatalogItem, error) {
	rows, err := db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var items []types.CatalogItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return items, nil
}

func scanItem(row pgx.Row) (types.CatalogItem, error) {
	var (
		it                                     types.CatalogItem
		level0, level1, level2, level3         *string
		intro, objective, audience, detail, yr *string
		curriculum                             []byte
	)
	err := row.Scan(&it.ID, &it.Title, &it.MajorCategory, &it.MiddleCategory, &it.MinorCategory,
		&level0, &level1, &level2, &level3, &intro, &objective, &audience,
		&curriculum, &detail, &it.Fee, &it.Sessions, &yr)
	if err != nil {
		return it, err
	}
	it.Level0, it.Level1, it.Level2, it.Level3 = derefString(level0), derefString(level1), derefString(level2), derefString(level3)
	it.Intro = derefString(intro)
	it.Objective = derefString(objective)
	it.TargetAudience = derefString(audience)
	it.DetailContent = derefString(detail)
	it.DevelopmentYear = derefString(yr)
	it.Curriculum = decodeCurriculum(curriculum)
	return it, nil
}

// decodeCurriculum accepts a JSON array of strings, a JSON string, or any other
// JSON value (kept as its compact text). NULL and empty input yield nil.
func decodeCurriculum(raw []byte) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			switch t := v.(type) {
			case string:
				if t != "" {
					out = append(out, t)
				}
			case nil:
			default:
				b, _ := json.Marshal(t)
				out = append(out, string(b))
			}
		}
		return out
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	return []string{string(raw)}
}

// buildSearchQuery builds the OR-of-ILIKE catalog search.
func buildSearchQuery(q types.CatalogQuery) (string, []any, error) {
	if len(q.AnyOf) == 0 {
		return "", nil, fmt.Errorf("catalog search requires at least one keyword")
	}
	fields := q.Fields
	if len(fields) == 0 {
		fields = types.HardFilterFields
	}

	columns := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := fieldColumns[f]
		if !ok {
			return "", nil, fmt.Errorf("unknown catalog field %q", f)
		}
		columns = append(columns, col)
	}

	args := make([]any, 0, len(q.AnyOf)+1)
	clauses := make([]string, 0, len(q.AnyOf)*len(columns))
	for _, kw := range q.AnyOf {
		args = append(args, "%"+escapeLike(kw)+"%")
		param := fmt.Sprintf("$%d", len(args))
		for _, col := range columns {
			clauses = append(clauses, col+" ILIKE "+param)
		}
	}

	sql := `SELECT ` + contentColumns + ` FROM contents WHERE ` +
		strings.Join(clauses, " OR ") + ` ` + recencyOrder
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return sql, args, nil
}

// escapeLike escapes LIKE wildcards so keywords match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
