package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/airlink-cl/airlink-api/internal/model"
)

// TerminalRepo provides read access to terminals (reference data).
type TerminalRepo struct {
	db *sql.DB
}

// NewTerminalRepo constructs a TerminalRepo with the given DB handle.
func NewTerminalRepo(db *sql.DB) *TerminalRepo {
	return &TerminalRepo{db: db}
}

const terminalColumns = `t.idTerminal, t.codigo, t.ciudad, t.pais, t.nombreTerminal, t.imagen,
		   tt.nombreTipoTerminal, t.activo`

func scanTerminal(row interface{ Scan(...any) error }) (*model.Terminal, error) {
	var t model.Terminal
	err := row.Scan(&t.ID, &t.Code, &t.City, &t.Country, &t.Name, &t.Image, &t.Type, &t.Active)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Resolve finds the terminal a search parameter refers to. An exact
// three-letter code match wins; otherwise the query is matched against city
// and terminal name. Only active terminals resolve.
func (r *TerminalRepo) Resolve(ctx context.Context, query string) (*model.Terminal, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrTerminalNotFound
	}
	const q = `SELECT ` + terminalColumns + `
		   FROM terminal t
		   JOIN tipo_terminal tt ON tt.idTipoTerminal = t.idTipoTerminal
		   WHERE t.activo = 1
			 AND (t.codigo = ? OR t.ciudad LIKE ? OR t.nombreTerminal LIKE ?)
		   ORDER BY (t.codigo = ?) DESC, t.idTerminal
		   LIMIT 1`
	code := strings.ToUpper(query)
	like := "%" + query + "%"
	t, err := scanTerminal(r.db.QueryRowContext(ctx, q, code, like, like, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTerminalNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListDestinations returns the active terminals reachable as a destination
// of at least one route, ordered by city for display.
func (r *TerminalRepo) ListDestinations(ctx context.Context) ([]model.Terminal, error) {
	const q = `SELECT DISTINCT ` + terminalColumns + `
		   FROM terminal t
		   JOIN tipo_terminal tt ON tt.idTipoTerminal = t.idTipoTerminal
		   JOIN ruta r ON r.idTerminalDestino = t.idTerminal
		   WHERE t.activo = 1
		   ORDER BY t.ciudad, t.codigo`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Terminal
	for rows.Next() {
		t, err := scanTerminal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CodeForCity returns the terminal code serving a city. When a city has
// several terminals the lowest id wins, which matches the seeding order of
// the reference data.
func (r *TerminalRepo) CodeForCity(ctx context.Context, city string) (string, error) {
	const q = `SELECT codigo FROM terminal
		   WHERE activo = 1 AND ciudad LIKE ?
		   ORDER BY idTerminal
		   LIMIT 1`
	var code string
	err := r.db.QueryRowContext(ctx, q, "%"+strings.TrimSpace(city)+"%").Scan(&code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrTerminalNotFound
		}
		return "", err
	}
	return code, nil
}
