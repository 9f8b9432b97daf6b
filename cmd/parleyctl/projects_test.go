package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCtl(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestProjectListForUser(t *testing.T) {
	db := filepath.Join(t.TempDir(), "parley.db")

	runCtl(t, "--db", db, "user", "add", "--id", "c1", "--name", "Cleo Client", "--role", "client")
	runCtl(t, "--db", db, "user", "add", "--id", "c2", "--name", "Cyd Client", "--role", "client")
	runCtl(t, "--db", db, "user", "add", "--id", "f1", "--name", "Finn Freelancer", "--role", "freelancer")
	runCtl(t, "--db", db, "project", "add", "--id", "p2", "--title", "Logo", "--client", "c2")
	runCtl(t, "--db", db, "project", "add", "--id", "p1", "--title", "Website", "--client", "c1", "--freelancer", "f1")

	all := runCtl(t, "--db", db, "project", "list")
	require.Contains(t, all, "Website")
	require.Contains(t, all, "Logo")

	mine := runCtl(t, "--db", db, "project", "list", "--user", "f1")
	require.Contains(t, mine, "Website")
	require.NotContains(t, mine, "Logo")

	theirs := runCtl(t, "--db", db, "project", "list", "--user", "c2")
	lines := strings.Split(strings.TrimSpace(theirs), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], "p2")
}
