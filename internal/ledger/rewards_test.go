package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRewardLedger_MoveShare(t *testing.T) {
	l := NewRewardLedger(zap.NewNop())
	l.Credit("bob", 10000)

	require.NoError(t, l.MoveShare("bob", "alice", 2600))
	require.Equal(t, uint64(2600), l.Share("alice"))
	require.Equal(t, uint64(7400), l.Share("bob"))
}

func TestRewardLedger_MoveShareConservesTotal(t *testing.T) {
	l := NewRewardLedger(zap.NewNop())
	l.Credit("alice", 12345)
	l.Credit("bob", 6789)
	l.Credit("carol", 1)
	before := l.Total()

	require.NoError(t, l.MoveShare("alice", "bob", 3333))
	require.NoError(t, l.MoveShare("bob", "carol", 9999))
	require.NoError(t, l.MoveShare("carol", "alice", 1))

	require.Equal(t, before, l.Total())
}

func TestRewardLedger_MoveShareBoundsAndEmpty(t *testing.T) {
	l := NewRewardLedger(zap.NewNop())

	require.Error(t, l.MoveShare("alice", "bob", 10001))

	// Moving from an account with no accrued share moves nothing.
	require.NoError(t, l.MoveShare("ghost", "bob", 5000))
	require.Equal(t, uint64(0), l.Share("bob"))
}
