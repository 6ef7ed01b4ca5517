package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verrors "vlab/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store, username string) *User {
	t.Helper()
	u := &User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestInMemoryStoreSurvivesConnectionChurn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// With idle caching off, each statement could land on a new pooled
	// connection, and a new connection to ":memory:" is an empty database.
	// The single-connection cap must keep the schema and rows alive.
	s.db.SetMaxIdleConns(0)

	u := newTestUser(t, s, "alice")

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		FullName:     "Alice Liddell",
	}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.True(t, u.IsActive)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Alice Liddell", got.FullName)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestCreateUserConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	newTestUser(t, s, "alice")

	err := s.CreateUser(ctx, &User{Username: "alice", Email: "other@example.com", PasswordHash: "h"})
	require.Error(t, err)
	assert.True(t, verrors.Is(err, verrors.ErrConflict))

	err = s.CreateUser(ctx, &User{Username: "bob", Email: "alice@example.com", PasswordHash: "h"})
	require.Error(t, err)
	assert.True(t, verrors.Is(err, verrors.ErrConflict))
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUserByUsername(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, verrors.Is(err, verrors.ErrNotFound))
}

func TestCircuitLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "alice")

	c := &Circuit{
		OwnerID: owner.ID,
		Name:    "divider",
		Netlist: "V1 in 0 5\nR1 in out 1k\nR2 out 0 2k",
	}
	require.NoError(t, s.CreateCircuit(ctx, c))

	got, err := s.GetCircuit(ctx, c.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "divider", got.Name)

	got.Description = "two resistor divider"
	got.IsPublic = true
	require.NoError(t, s.UpdateCircuit(ctx, got))

	listed, err := s.ListCircuits(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "two resistor divider", listed[0].Description)

	require.NoError(t, s.DeleteCircuit(ctx, c.ID, owner.ID))
	_, err = s.GetCircuit(ctx, c.ID, owner.ID)
	assert.True(t, verrors.Is(err, verrors.ErrNotFound))
}

func TestCircuitOwnerScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")

	private := &Circuit{OwnerID: alice.ID, Name: "private", Netlist: "V1 a 0 1"}
	require.NoError(t, s.CreateCircuit(ctx, private))
	shared := &Circuit{OwnerID: alice.ID, Name: "shared", Netlist: "V1 a 0 1", IsPublic: true}
	require.NoError(t, s.CreateCircuit(ctx, shared))

	_, err := s.GetCircuit(ctx, private.ID, bob.ID)
	assert.True(t, verrors.Is(err, verrors.ErrNotFound))

	got, err := s.GetCircuit(ctx, shared.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.OwnerID)

	// Public visibility does not grant write access.
	shared.OwnerID = bob.ID
	err = s.UpdateCircuit(ctx, shared)
	assert.True(t, verrors.Is(err, verrors.ErrNotFound))
	err = s.DeleteCircuit(ctx, shared.ID, bob.ID)
	assert.True(t, verrors.Is(err, verrors.ErrNotFound))

	mine, err := s.ListCircuits(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestCircuitNameConflictPerOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")

	require.NoError(t, s.CreateCircuit(ctx, &Circuit{OwnerID: alice.ID, Name: "rc", Netlist: "n"}))

	err := s.CreateCircuit(ctx, &Circuit{OwnerID: alice.ID, Name: "rc", Netlist: "n"})
	assert.True(t, verrors.Is(err, verrors.ErrConflict))

	// Same name under a different owner is fine.
	require.NoError(t, s.CreateCircuit(ctx, &Circuit{OwnerID: bob.ID, Name: "rc", Netlist: "n"}))
}

func TestSimulationHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newTestUser(t, s, "alice")

	params, _ := json.Marshal(map[string]string{"step_time": "1u", "end_time": "1m"})
	results, _ := json.Marshal(map[string]float64{"out": 3.333})

	for i := 0; i < 3; i++ {
		sim := &Simulation{
			UserID:        user.ID,
			CircuitName:   "divider",
			Netlist:       "V1 in 0 5",
			Analysis:      "transient",
			Parameters:    params,
			Results:       results,
			Success:       true,
			ExecutionTime: int64(10 + i),
			CreatedAt:     time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.SaveSimulation(ctx, sim))
	}

	sims, err := s.ListSimulations(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, sims, 3)
	// Newest first.
	assert.Equal(t, int64(12), sims[0].ExecutionTime)
	assert.JSONEq(t, string(results), string(sims[0].Results))

	limited, err := s.ListSimulations(ctx, user.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	got, err := s.GetSimulation(ctx, sims[0].ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "transient", got.Analysis)

	_, err = s.GetSimulation(ctx, sims[0].ID, "someone-else")
	assert.True(t, verrors.Is(err, verrors.ErrNotFound))
}

func TestSaveFailedSimulation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newTestUser(t, s, "alice")

	sim := &Simulation{
		UserID:       user.ID,
		CircuitName:  "broken",
		Netlist:      "R1 a b 1k",
		Analysis:     "op",
		Success:      false,
		ErrorMessage: "no independent sources",
	}
	require.NoError(t, s.SaveSimulation(ctx, sim))

	sims, err := s.ListSimulations(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.False(t, sims[0].Success)
	assert.Equal(t, "no independent sources", sims[0].ErrorMessage)
	assert.Nil(t, sims[0].Parameters)
	assert.Nil(t, sims[0].Results)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
