package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	verrors "vlab/internal/errors"
)

// defaultHistoryLimit caps how many runs a history listing returns.
const defaultHistoryLimit = 50

// Simulation is one recorded simulation run.
type Simulation struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	CircuitID     string          `json:"circuit_id,omitempty"`
	CircuitName   string          `json:"circuit_name"`
	Netlist       string          `json:"netlist"`
	Analysis      string          `json:"analysis_type"`
	Parameters    json.RawMessage `json:"parameters,omitempty"`
	Results       json.RawMessage `json:"results,omitempty"`
	Success       bool            `json:"success"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	ExecutionTime int64           `json:"execution_time_ms"`
	CreatedAt     time.Time       `json:"created_at"`
}

const simulationColumns = `id, user_id, circuit_id, circuit_name, netlist, analysis_type,
	parameters, results, success, error_message, execution_time_ms, created_at`

// SaveSimulation records a finished run, successful or not.
func (s *Store) SaveSimulation(ctx context.Context, sim *Simulation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sim.ID == "" {
		sim.ID = uuid.NewString()
	}
	if sim.CreatedAt.IsZero() {
		sim.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO simulations (`+simulationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sim.ID, sim.UserID, nullable(sim.CircuitID), sim.CircuitName, sim.Netlist,
		sim.Analysis, rawOrNull(sim.Parameters), rawOrNull(sim.Results),
		sim.Success, sim.ErrorMessage, sim.ExecutionTime, sim.CreatedAt)
	return verrors.WrapError(verrors.ErrStoreUnavailable, err)
}

// ListSimulations returns the user's runs, newest first. A non-positive
// limit falls back to the default cap.
func (s *Store) ListSimulations(ctx context.Context, userID string, limit int) ([]*Simulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+simulationColumns+` FROM simulations
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, verrors.WrapError(verrors.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	sims := make([]*Simulation, 0)
	for rows.Next() {
		sim, err := scanSimulation(rows.Scan)
		if err != nil {
			return nil, verrors.WrapError(verrors.ErrStoreUnavailable, err)
		}
		sims = append(sims, sim)
	}
	return sims, verrors.WrapError(verrors.ErrStoreUnavailable, rows.Err())
}

// GetSimulation returns one of the user's runs by id.
func (s *Store) GetSimulation(ctx context.Context, id, userID string) (*Simulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+simulationColumns+` FROM simulations
		WHERE id = ? AND user_id = ?`, id, userID)
	sim, err := scanSimulation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, verrors.ErrNotFound.GenWithStackByArgs("simulation")
	}
	if err != nil {
		return nil, verrors.WrapError(verrors.ErrStoreUnavailable, err)
	}
	return sim, nil
}

func scanSimulation(scan func(...interface{}) error) (*Simulation, error) {
	var sim Simulation
	var circuitID, errorMessage sql.NullString
	var parameters, results sql.NullString
	err := scan(&sim.ID, &sim.UserID, &circuitID, &sim.CircuitName, &sim.Netlist,
		&sim.Analysis, &parameters, &results, &sim.Success, &errorMessage,
		&sim.ExecutionTime, &sim.CreatedAt)
	if err != nil {
		return nil, err
	}
	sim.CircuitID = circuitID.String
	sim.ErrorMessage = errorMessage.String
	if parameters.Valid {
		sim.Parameters = json.RawMessage(parameters.String)
	}
	if results.Valid {
		sim.Results = json.RawMessage(results.String)
	}
	return &sim, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func rawOrNull(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
