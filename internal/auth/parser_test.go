package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

func TestParseRoundTrip(t *testing.T) {
	parser := NewParser("secret")
	want := model.Principal{UserID: 3, ProviderID: 9, Role: model.RoleProvider}

	token, err := parser.Issue(want, time.Hour)
	require.NoError(t, err)

	got, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseRejects(t *testing.T) {
	parser := NewParser("secret")
	valid := model.Principal{UserID: 3, ProviderID: 9, Role: model.RoleStaff}

	otherKey, err := NewParser("other").Issue(valid, time.Hour)
	require.NoError(t, err)
	expired, err := parser.Issue(valid, -time.Minute)
	require.NoError(t, err)
	noProvider, err := parser.Issue(model.Principal{UserID: 3, Role: model.RoleProvider}, time.Hour)
	require.NoError(t, err)
	badRole, err := parser.Issue(model.Principal{UserID: 3, ProviderID: 9, Role: "ADMIN"}, time.Hour)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 3, ProviderID: 9, Role: "PROVIDER"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"empty":       "",
		"garbage":     "not-a-token",
		"wrong key":   otherKey,
		"expired":     expired,
		"no provider": noProvider,
		"bad role":    badRole,
		"no expiry":   noExpiry,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseNormalizesRole(t *testing.T) {
	parser := NewParser("secret")
	token, err := parser.Issue(model.Principal{UserID: 1, ProviderID: 2, Role: "provider"}, time.Hour)
	require.NoError(t, err)

	got, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleProvider, got.Role)
}
