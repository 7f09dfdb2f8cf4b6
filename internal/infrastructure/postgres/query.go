package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/order-backend/internal/repository"
)

// cursor resumes a listing after the last id returned.
type cursor struct {
	After string `json:"after"`
}

func listQuery(collection, attr string, value any, after string, limit int) (string, []any) {
	var b strings.Builder
	args := []any{collection}
	b.WriteString(`SELECT body FROM documents WHERE collection = $1`)

	if attr != "" {
		args = append(args, attr, fmt.Sprint(value))
		fmt.Fprintf(&b, ` AND body->>$%d = $%d`, len(args)-1, len(args))
	}
	if after != "" {
		args = append(args, after)
		fmt.Fprintf(&b, ` AND id > $%d`, len(args))
	}
	b.WriteString(` ORDER BY id`)
	if limit > 0 {
		// one extra row tells whether another page exists
		args = append(args, limit+1)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	return b.String(), args
}

// updateQuery merges the patch assignments into the stored document with
// the jsonb || operator, guarded by the patch condition if any.
func updateQuery(collection, id string, patch repository.Patch) (string, []any, error) {
	assignments := patch.Assignments()
	if len(assignments) == 0 {
		return "", nil, errors.New("update has no assignments")
	}
	fields := make(map[string]any, len(assignments))
	for _, a := range assignments {
		fields[a.Attribute] = a.Value
	}
	merge, err := json.Marshal(fields)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode update: %w", err)
	}

	query := `UPDATE documents SET body = body || $3::jsonb WHERE collection = $1 AND id = $2`
	args := []any{collection, id, string(merge)}
	if cond := patch.Condition(); cond != nil {
		expected, err := json.Marshal(cond.Value)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode condition: %w", err)
		}
		args = append(args, cond.Attribute, string(expected))
		query += ` AND body->$` + strconv.Itoa(len(args)-1) + ` = $` + strconv.Itoa(len(args)) + `::jsonb`
	}
	return query + ` RETURNING body`, args, nil
}
