package will

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/heirloom/contracts/token"
	"go.dedis.ch/heirloom/core/access"
	"go.dedis.ch/heirloom/core/events"
	"go.dedis.ch/heirloom/core/execution"
	"go.dedis.ch/heirloom/core/execution/native"
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/core/txn"
	"go.dedis.ch/heirloom/core/txn/signed"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"go.dedis.ch/heirloom/internal/testing/fake"
)

var allCommands = []Command{
	CmdInit, CmdDeposit, CmdCheckIn, CmdClaim, CmdWithdraw, CmdInfo, CmdBalance, CmdCanClaim,
}

func TestExecute(t *testing.T) {
	contract := NewContract(token.NewService(), events.NewRecorder())
	contract.cmd = fakeCmd{}

	signer := ed25519.NewSigner()

	err := contract.Execute(fake.NewSnapshot(), makeStep(t, signer, 0))
	require.EqualError(t, err, "'will:command' not found in tx arg")

	err = contract.Execute(fake.NewSnapshot(), makeStep(t, signer, 0, CmdArg, "INFO"))
	require.EqualError(t, err, "'will:instance' not found in tx arg")

	for _, cmd := range allCommands {
		err = contract.Execute(fake.NewSnapshot(),
			makeStep(t, signer, 0, CmdArg, string(cmd), InstanceArg, "main"))
		require.NoError(t, err)
	}

	contract.cmd = fakeCmd{err: fake.GetError()}

	for _, cmd := range allCommands {
		err = contract.Execute(fake.NewSnapshot(),
			makeStep(t, signer, 0, CmdArg, string(cmd), InstanceArg, "main"))
		require.EqualError(t, err, fake.Err(fmt.Sprintf("failed to %s", cmd)))
	}

	err = contract.Execute(fake.NewSnapshot(),
		makeStep(t, signer, 0, CmdArg, "fake", InstanceArg, "main"))
	require.EqualError(t, err, "unknown command: fake")

	err = contract.Execute(fake.NewSnapshot(),
		makeStep(t, signer, 0, CmdArg, "INFO", InstanceArg, "a/contract:heirloom.Will/b"))
	require.EqualError(t, err, `instance "a/contract:heirloom.Will/b": invalid instance name`)
}

func TestCheckInstance(t *testing.T) {
	for _, name := range []string{"main", "family-2024", "cb0u2kq2o9d5qqq5fqa0", strings.Repeat("a", 64)} {
		require.NoError(t, CheckInstance(name), name)
	}

	invalid := []string{
		"",
		"a/contract:heirloom.Will/b",
		"Main",
		"main\n",
		"will one",
		strings.Repeat("a", 65),
	}

	for _, name := range invalid {
		err := CheckInstance(name)
		require.True(t, errors.Is(err, ErrInvalidInstance), name)
	}
}

func TestCommands_InvalidInstance(t *testing.T) {
	env := newContractEnv(t)

	step := makeStep(t, env.owner, 1000, CmdArg, "INIT",
		InstanceArg, "a/contract:heirloom.Will/b",
		BeneficiaryArg, textOf(t, env.beneficiary), PeriodArg, "100", AssetArg, "XLM")

	err := env.contract.Execute(env.snap, step)
	require.True(t, errors.Is(err, ErrInvalidInstance))
	require.Equal(t, 0, env.rec.Len())
}

func TestCommands_Scenario(t *testing.T) {
	env := newContractEnv(t)

	// The owner creates the will at time 1000 and deposits 500 XLM.
	env.exec(t, env.owner, 1000, CmdArg, "INIT", BeneficiaryArg, textOf(t, env.beneficiary),
		PeriodArg, "15552000", AssetArg, "XLM")
	env.exec(t, env.owner, 1000, CmdArg, "DEPOSIT", AmountArg, "500")

	env.exec(t, env.stranger, 2000, CmdArg, "INFO")
	require.Equal(t, fmt.Sprintf("owner=%s,beneficiary=%s,period=15552000,lastCheckIn=1000",
		textOf(t, env.owner), textOf(t, env.beneficiary)), env.buf.data)

	env.exec(t, env.stranger, 2000, CmdArg, "BALANCE")
	require.Equal(t, "balance=500", env.buf.data)

	env.exec(t, env.stranger, 1000+15552000, CmdArg, "CANCLAIM")
	require.Equal(t, "canClaim=false", env.buf.data)

	err := env.run(t, env.beneficiary, 1000+15552000, CmdArg, "CLAIM")
	require.EqualError(t, err,
		"failed to CLAIM: time 15553000 is not after 15553000: deadline not reached")
	require.True(t, errors.Is(err, ErrDeadlineNotReached))

	env.exec(t, env.stranger, 1000+15552001, CmdArg, "CANCLAIM")
	require.Equal(t, "canClaim=true", env.buf.data)

	env.exec(t, env.beneficiary, 1000+15552001, CmdArg, "CLAIM")

	env.requireBalance(t, env.beneficiary, 500)
	env.requireBalance(t, IdentityOf("main"), 0)

	require.Equal(t, []string{"init", "deposit", "claim"}, topicsOf(env.rec))
}

func TestCommands_CheckInAndWithdraw(t *testing.T) {
	env := newContractEnv(t)

	env.exec(t, env.owner, 1000, CmdArg, "INIT", BeneficiaryArg, textOf(t, env.beneficiary),
		PeriodArg, "100", AssetArg, "XLM")
	env.exec(t, env.owner, 1000, CmdArg, "DEPOSIT", AmountArg, "700")

	env.exec(t, env.owner, 2000, CmdArg, "CHECKIN")

	err := env.run(t, env.beneficiary, 2050, CmdArg, "CLAIM")
	require.True(t, errors.Is(err, ErrDeadlineNotReached))

	err = env.run(t, env.stranger, 2050, CmdArg, "CHECKIN")
	require.True(t, errors.Is(err, ErrNotOwner))

	// The sender cannot act for another identity.
	err = env.run(t, env.stranger, 2050, CmdArg, "WITHDRAW", IdentityArg, textOf(t, env.owner))
	require.True(t, errors.Is(err, ErrAuthorizationFailed))

	env.exec(t, env.owner, 3000, CmdArg, "WITHDRAW", IdentityArg, textOf(t, env.owner))

	env.requireBalance(t, env.owner, 1000)
	env.requireBalance(t, IdentityOf("main"), 0)

	require.Equal(t, []string{"init", "deposit", "checkin", "withdraw"}, topicsOf(env.rec))
	require.Equal(t, "2000", env.rec.GetEvents()[2].Get("time"))
}

func TestCommands_InitForAnotherOwner(t *testing.T) {
	env := newContractEnv(t)

	err := env.run(t, env.stranger, 1000, CmdArg, "INIT", OwnerArg, textOf(t, env.owner),
		BeneficiaryArg, textOf(t, env.beneficiary), PeriodArg, "100", AssetArg, "XLM")
	require.True(t, errors.Is(err, ErrAuthorizationFailed))

	err = env.run(t, env.owner, 1000, CmdArg, "INIT", OwnerArg, textOf(t, env.owner),
		BeneficiaryArg, textOf(t, env.owner), PeriodArg, "100", AssetArg, "XLM")
	require.True(t, errors.Is(err, ErrSameParties))

	env.exec(t, env.owner, 1000, CmdArg, "INIT", OwnerArg, textOf(t, env.owner),
		BeneficiaryArg, textOf(t, env.beneficiary), PeriodArg, "100", AssetArg, "XLM")

	err = env.run(t, env.owner, 1000, CmdArg, "INIT",
		BeneficiaryArg, textOf(t, env.beneficiary), PeriodArg, "100", AssetArg, "XLM")
	require.EqualError(t, err, "failed to INIT: will 'main': already initialized")
}

func TestCommands_Args(t *testing.T) {
	env := newContractEnv(t)

	err := env.run(t, env.owner, 0, CmdArg, "INIT")
	require.EqualError(t, err, "failed to INIT: 'will:beneficiary' not found in tx arg")

	err = env.run(t, env.owner, 0, CmdArg, "INIT", OwnerArg, "ed25519:zz")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to INIT: invalid 'will:owner': malformed hex: ")

	err = env.run(t, env.owner, 0, CmdArg, "INIT", BeneficiaryArg, textOf(t, env.beneficiary))
	require.EqualError(t, err, "failed to INIT: 'will:period' not found in tx arg")

	err = env.run(t, env.owner, 0, CmdArg, "INIT", BeneficiaryArg, textOf(t, env.beneficiary),
		PeriodArg, "abc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to INIT: invalid 'will:period': ")

	err = env.run(t, env.owner, 0, CmdArg, "DEPOSIT")
	require.EqualError(t, err, "failed to DEPOSIT: 'will:amount' not found in tx arg")

	err = env.run(t, env.owner, 0, CmdArg, "DEPOSIT", IdentityArg, "zz")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to DEPOSIT: invalid 'will:identity': ")

	for _, cmd := range []string{"CHECKIN", "CLAIM", "WITHDRAW"} {
		err = env.run(t, env.owner, 0, CmdArg, cmd, IdentityArg, "zz")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid 'will:identity': ")
	}

	for _, cmd := range []string{"DEPOSIT", "CHECKIN", "CLAIM", "WITHDRAW", "INFO", "BALANCE", "CANCLAIM"} {
		err = env.run(t, env.owner, 0, CmdArg, cmd, AmountArg, "1")
		require.True(t, errors.Is(err, ErrNotInitialized), cmd)
	}
}

func TestCommands_UnsupportedSender(t *testing.T) {
	contract := NewContract(token.NewService(), events.NewRecorder())

	step := execution.Step{Current: fakeTx{args: map[string]string{
		CmdArg:         "INIT",
		InstanceArg:    "main",
		BeneficiaryArg: textOf(t, ed25519.NewSigner().GetPublicKey()),
	}}}

	err := contract.Execute(fake.NewSnapshot(), step)
	require.EqualError(t, err,
		"failed to INIT: unsupported sender 'access.ContractIdentity'")
}

func TestRegisterContract(t *testing.T) {
	exec := native.NewExecution()
	RegisterContract(exec, NewContract(token.NewService(), events.NewRecorder()))

	require.Panics(t, func() {
		RegisterContract(exec, NewContract(token.NewService(), events.NewRecorder()))
	})
}

func TestInfoLog(t *testing.T) {
	n, err := infoLog{}.Write([]byte("balance=1"))
	require.NoError(t, err)
	require.Equal(t, 9, n)
}

// -----------------------------------------------------------------------------
// Utility functions

type contractEnv struct {
	contract    Contract
	snap        *fake.InMemorySnapshot
	rec         *events.Recorder
	buf         *bufPrinter
	assets      token.Service
	owner       ed25519.Signer
	beneficiary ed25519.Signer
	stranger    ed25519.Signer
}

func newContractEnv(t *testing.T) *contractEnv {
	env := &contractEnv{
		snap:        fake.NewSnapshot(),
		rec:         events.NewRecorder(),
		buf:         &bufPrinter{},
		assets:      token.NewService(),
		owner:       ed25519.NewSigner(),
		beneficiary: ed25519.NewSigner(),
		stranger:    ed25519.NewSigner(),
	}

	admin := access.NewContractIdentity("admin")

	require.NoError(t, env.assets.Issue(env.snap, "XLM", admin))
	require.NoError(t, env.assets.Mint(env.snap, "XLM", admin, env.owner.GetPublicKey(), 1000))

	env.contract = NewContract(env.assets, env.rec)
	env.contract.printer = env.buf
	env.contract.cmd = willCommand{Contract: &env.contract}

	return env
}

func (env *contractEnv) run(t *testing.T, signer ed25519.Signer, now uint64, args ...string) error {
	args = append(args, InstanceArg, "main")

	return env.contract.Execute(env.snap, makeStep(t, signer, now, args...))
}

func (env *contractEnv) exec(t *testing.T, signer ed25519.Signer, now uint64, args ...string) {
	require.NoError(t, env.run(t, signer, now, args...))
}

func (env *contractEnv) requireBalance(t *testing.T, holder interface{}, expected uint64) {
	var ident access.Identity

	switch h := holder.(type) {
	case ed25519.Signer:
		ident = h.GetPublicKey()
	case access.Identity:
		ident = h
	}

	balance, err := env.assets.BalanceOf(env.snap, "XLM", ident)
	require.NoError(t, err)
	require.Equal(t, expected, balance)
}

func makeStep(t *testing.T, signer ed25519.Signer, now uint64, args ...string) execution.Step {
	opts := []signed.TransactionOption{}

	for i := 0; i < len(args)-1; i += 2 {
		opts = append(opts, signed.WithArg(args[i], []byte(args[i+1])))
	}

	tx, err := signed.NewTransaction(0, signer.GetPublicKey(), opts...)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(signer))

	return execution.Step{Current: tx, Time: now}
}

// textOf returns the text of the public key of a signer, or of a public key.
func textOf(t *testing.T, v interface{}) string {
	if signer, ok := v.(ed25519.Signer); ok {
		v = signer.GetPublicKey()
	}

	text, err := v.(access.Identity).MarshalText()
	require.NoError(t, err)

	return string(text)
}

type fakeCmd struct {
	err error
}

func (c fakeCmd) init(Machine, store.Snapshot, execution.Step) error {
	return c.err
}

func (c fakeCmd) deposit(Machine, store.Snapshot, execution.Step) error {
	return c.err
}

func (c fakeCmd) checkIn(Machine, store.Snapshot, execution.Step) error {
	return c.err
}

func (c fakeCmd) claim(Machine, store.Snapshot, execution.Step) error {
	return c.err
}

func (c fakeCmd) withdraw(Machine, store.Snapshot, execution.Step) error {
	return c.err
}

func (c fakeCmd) info(Machine, store.Snapshot) error {
	return c.err
}

func (c fakeCmd) balance(Machine, store.Snapshot) error {
	return c.err
}

func (c fakeCmd) canClaim(Machine, store.Snapshot) error {
	return c.err
}

type bufPrinter struct {
	data string
}

func (p *bufPrinter) Write(b []byte) (int, error) {
	p.data = string(b)

	return len(b), nil
}

// fakeTx is a transaction sent by a contract identity.
type fakeTx struct {
	txn.Transaction

	args map[string]string
}

func (tx fakeTx) GetArg(key string) []byte {
	return []byte(tx.args[key])
}

func (tx fakeTx) GetIdentity() access.Identity {
	return access.NewContractIdentity("fake")
}
