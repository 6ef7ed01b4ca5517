package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	verrors "vlab/internal/errors"
)

// Circuit is a saved netlist owned by a user.
type Circuit struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Netlist     string    `json:"netlist"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const circuitColumns = `id, owner_id, name, description, netlist, is_public, created_at, updated_at`

// CreateCircuit inserts a circuit for the owner. Names are unique per owner.
func (s *Store) CreateCircuit(ctx context.Context, circuit *Circuit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if taken, err := s.exists(ctx,
		`SELECT 1 FROM circuits WHERE owner_id = ? AND name = ?`,
		circuit.OwnerID, circuit.Name); err != nil {
		return err
	} else if taken {
		return verrors.ErrConflict.GenWithStackByArgs("circuit name")
	}

	if circuit.ID == "" {
		circuit.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	circuit.CreatedAt = now
	circuit.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO circuits (`+circuitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		circuit.ID, circuit.OwnerID, circuit.Name, circuit.Description,
		circuit.Netlist, circuit.IsPublic, circuit.CreatedAt, circuit.UpdatedAt)
	return verrors.WrapError(verrors.ErrStoreUnavailable, err)
}

// GetCircuit returns a circuit visible to the user: owned by them or public.
func (s *Store) GetCircuit(ctx context.Context, id, userID string) (*Circuit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanCircuit(s.db.QueryRowContext(ctx, `
		SELECT `+circuitColumns+` FROM circuits
		WHERE id = ? AND (owner_id = ? OR is_public = 1)`, id, userID))
}

// ListCircuits returns the user's circuits, newest first.
func (s *Store) ListCircuits(ctx context.Context, ownerID string) ([]*Circuit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+circuitColumns+` FROM circuits
		WHERE owner_id = ? ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, verrors.WrapError(verrors.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	circuits := make([]*Circuit, 0)
	for rows.Next() {
		var c Circuit
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &description,
			&c.Netlist, &c.IsPublic, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, verrors.WrapError(verrors.ErrStoreUnavailable, err)
		}
		c.Description = description.String
		circuits = append(circuits, &c)
	}
	return circuits, verrors.WrapError(verrors.ErrStoreUnavailable, rows.Err())
}

// UpdateCircuit replaces the mutable fields of a circuit the user owns.
func (s *Store) UpdateCircuit(ctx context.Context, circuit *Circuit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	circuit.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE circuits SET name = ?, description = ?, netlist = ?, is_public = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		circuit.Name, circuit.Description, circuit.Netlist, circuit.IsPublic,
		circuit.UpdatedAt, circuit.ID, circuit.OwnerID)
	if err != nil {
		return verrors.WrapError(verrors.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return verrors.ErrNotFound.GenWithStackByArgs("circuit")
	}
	return nil
}

// DeleteCircuit removes a circuit the user owns.
func (s *Store) DeleteCircuit(ctx context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM circuits WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return verrors.WrapError(verrors.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return verrors.ErrNotFound.GenWithStackByArgs("circuit")
	}
	return nil
}

func scanCircuit(row *sql.Row) (*Circuit, error) {
	var c Circuit
	var description sql.NullString
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &description,
		&c.Netlist, &c.IsPublic, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, verrors.ErrNotFound.GenWithStackByArgs("circuit")
	}
	if err != nil {
		return nil, verrors.WrapError(verrors.ErrStoreUnavailable, err)
	}
	c.Description = description.String
	return &c, nil
}
