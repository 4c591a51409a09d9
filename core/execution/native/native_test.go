package native

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/heirloom/core/execution"
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/core/txn"
	"go.dedis.ch/heirloom/internal/testing/fake"
)

func TestService_RequireUniqueContractName(t *testing.T) {
	srvc := NewExecution()
	srvc.Set("abc", fakeExec{})

	require.PanicsWithError(t, "contract 'abc' already registered", func() {
		srvc.Set("abc", fakeExec{})
	})
}

func TestService_Execute(t *testing.T) {
	srvc := NewExecution()
	srvc.Set("abc", fakeExec{})
	srvc.Set("bad", fakeExec{err: fake.GetError()})

	step := execution.Step{}
	step.Current = fakeTx{contract: "abc"}

	res, err := srvc.Execute(nil, step)
	require.NoError(t, err)
	require.Equal(t, execution.Result{Accepted: true}, res)

	step.Current = fakeTx{contract: "bad"}
	res, err = srvc.Execute(nil, step)
	require.NoError(t, err)
	require.Equal(t, execution.Result{Message: fake.GetError().Error()}, res)

	step.Current = fakeTx{contract: "none"}
	_, err = srvc.Execute(nil, step)
	require.EqualError(t, err, "unknown contract 'none'")

	step.Current = nil
	_, err = srvc.Execute(nil, step)
	require.EqualError(t, err, "missing transaction")
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeExec struct {
	err error
}

func (e fakeExec) Execute(store.Snapshot, execution.Step) error {
	return e.err
}

type fakeTx struct {
	txn.Transaction

	contract string
}

func (tx fakeTx) GetArg(key string) []byte {
	if key == ContractArg {
		return []byte(tx.contract)
	}

	return nil
}
