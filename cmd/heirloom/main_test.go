package main

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeirloom_Scenario(t *testing.T) {
	dir := t.TempDir()

	owner := newUser(dir, "owner")
	heir := newUser(dir, "heir")

	ownerKey := owner.whoami(t)
	heirKey := heir.whoami(t)

	owner.exec(t, "token", "issue", "--asset", "XLM")
	owner.exec(t, "token", "mint", "--asset", "XLM", "--to", ownerKey, "--amount", "1000")

	out := owner.exec(t, "will", "init", "--beneficiary", heirKey, "--period", "60",
		"--asset", "XLM")

	match := regexp.MustCompile(`^will (\S+) initialized\n$`).FindStringSubmatch(out)
	require.Len(t, match, 2)

	instance := match[1]

	owner.exec(t, "will", "deposit", "--instance", instance, "--amount", "300")

	out = owner.exec(t, "will", "balance", "--instance", instance)
	require.Equal(t, "300\n", out)

	out = heir.exec(t, "will", "canclaim", "--instance", instance)
	require.Equal(t, "false\n", out)

	_, err := heir.run("will", "claim", "--instance", instance)
	require.Error(t, err)
	require.Contains(t, err.Error(), "deadline not reached")

	out = heir.exec(t, "--clock-offset", "2m", "will", "canclaim", "--instance", instance)
	require.Equal(t, "true\n", out)

	out = heir.exec(t, "--clock-offset", "2m", "will", "claim", "--instance", instance)
	require.Equal(t, "CLAIM accepted\n", out)

	out = heir.exec(t, "token", "balance", "--asset", "XLM")
	require.Equal(t, "XLM=300\n", out)

	out = owner.exec(t, "token", "balance", "--asset", "XLM")
	require.Equal(t, "XLM=700\n", out)

	out = owner.exec(t, "ledger", "events")

	topics := []string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		topics = append(topics, strings.Split(line, "\t")[2])
	}

	require.Equal(t, []string{"issue", "mint", "init", "deposit", "claim"}, topics)
}

func TestHeirloom_BadConfig(t *testing.T) {
	err := runWithCfg([]string{"heirloom", "--config", t.TempDir(), "ledger", "time"},
		new(bytes.Buffer))
	require.Error(t, err)
	require.Contains(t, err.Error(), "couldn't load config: ")
}

// -----------------------------------------------------------------------------
// Utility functions

// user runs the commands with its own key on the shared ledger database.
type user struct {
	dir  string
	name string
}

func newUser(dir, name string) user {
	return user{dir: dir, name: name}
}

func (u user) run(args ...string) (string, error) {
	out := new(bytes.Buffer)

	full := append([]string{
		"heirloom",
		"--config", filepath.Join(u.dir, "config.yml"),
		"--db", filepath.Join(u.dir, "ledger.db"),
		"--key", filepath.Join(u.dir, u.name+".key"),
		"--log-level", "none",
	}, args...)

	err := runWithCfg(full, out)

	return out.String(), err
}

func (u user) exec(t *testing.T, args ...string) string {
	out, err := u.run(args...)
	require.NoError(t, err)

	return out
}

func (u user) whoami(t *testing.T) string {
	out := u.exec(t, "ledger", "whoami")

	return strings.Split(out, "\t")[0]
}
