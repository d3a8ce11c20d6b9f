package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientStatus_Advances(t *testing.T) {
	tests := []struct {
		from, to ClientStatus
		want     bool
	}{
		{ClientStatusPendingSignature, ClientStatusNewLead, true},
		{ClientStatusNewLead, ClientStatusPendingApproval, true},
		{ClientStatusPendingApproval, ClientStatusNewLead, false},
		{ClientStatusPendingApproval, ClientStatusScheduled, true},
		{ClientStatusScheduled, ClientStatusPendingApproval, false},
		{ClientStatusActive, ClientStatusCompleted, true},
		{ClientStatusCompleted, ClientStatusActive, false},
		{ClientStatusCancelled, ClientStatusActive, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.Advances(tt.to))
		})
	}
}

func TestStatusesBefore_PendingApprovalIncludesNewLead(t *testing.T) {
	assert.ElementsMatch(t,
		[]ClientStatus{ClientStatusPendingSignature, ClientStatusNewLead},
		StatusesBefore(ClientStatusPendingApproval))
}
