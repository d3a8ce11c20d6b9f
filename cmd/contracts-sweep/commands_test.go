package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/cleaning-contracts/internal/auth"
	"github.com/nurpe/cleaning-contracts/internal/model"
)

func TestTokenCmd(t *testing.T) {
	cmd := tokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--secret", "s3cret", "--provider", "7", "--role", "STAFF"})
	require.NoError(t, cmd.Execute())

	principal, err := auth.NewParser("s3cret").Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, model.Principal{UserID: 1, ProviderID: 7, Role: model.RoleStaff}, principal)
}

func TestTokenCmdRequiresProvider(t *testing.T) {
	cmd := tokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--secret", "s3cret"})
	assert.ErrorContains(t, cmd.Execute(), "--provider")
}

func TestRunCmdRejectsBadTime(t *testing.T) {
	cmd := runCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--at", "tomorrow"})
	assert.ErrorContains(t, cmd.Execute(), "invalid --at")
}
