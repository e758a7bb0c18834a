package proposalledger

import (
	"testing"
	"time"

	"agora/contexts/governance/proposal-ledger/domain/services"
)

func TestNewModuleVotingWindow(t *testing.T) {
	cases := []struct {
		name       string
		configured time.Duration
		want       time.Duration
	}{
		{name: "unset falls back to the domain default", configured: 0, want: services.DefaultMinVotingWindow},
		{name: "negative falls back to the domain default", configured: -time.Minute, want: services.DefaultMinVotingWindow},
		{name: "configured", configured: 15 * time.Minute, want: 15 * time.Minute},
	}
	for _, tc := range cases {
		module := NewModule(Dependencies{MinVotingWindow: tc.configured})
		if got := module.Handler.Ledger.MinVotingWindow; got != tc.want {
			t.Fatalf("%s: expected window %s, got %s", tc.name, tc.want, got)
		}
	}
}
