package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/domain/types"
	"github.com/Slalom-Consulting/tap-powerbi-metadata/pkg/usecase"
)

func TestVersionResolver_Resolve(t *testing.T) {
	tests := []struct {
		name        string
		branch      string
		runNumber   int64
		base        string
		wantVersion string
		wantChannel types.Channel
		wantErr     bool
	}{
		{
			name:        "main branch publishes base version unchanged",
			branch:      "main",
			runNumber:   42,
			base:        "1.2.0",
			wantVersion: "1.2.0",
			wantChannel: types.ChannelStable,
		},
		{
			name:        "feature branch gets dev suffix with run number",
			branch:      "feature/x",
			runNumber:   42,
			base:        "1.2.0",
			wantVersion: "1.2.0-dev.42",
			wantChannel: types.ChannelDev,
		},
		{
			name:        "refs/heads prefix is stripped",
			branch:      "refs/heads/main",
			runNumber:   1,
			base:        "0.6.0",
			wantVersion: "0.6.0",
			wantChannel: types.ChannelStable,
		},
		{
			name:        "refs/heads prefix on feature branch",
			branch:      "refs/heads/fix/poller",
			runNumber:   7,
			base:        "0.6.0",
			wantVersion: "0.6.0-dev.7",
			wantChannel: types.ChannelDev,
		},
		{
			name:      "malformed base version is fatal",
			branch:    "main",
			runNumber: 1,
			base:      "not-a-version",
			wantErr:   true,
		},
		{
			name:      "partial base version is fatal",
			branch:    "main",
			runNumber: 1,
			base:      "1.2",
			wantErr:   true,
		},
		{
			name:      "non-positive run number on dev branch is fatal",
			branch:    "feature/x",
			runNumber: 0,
			base:      "1.2.0",
			wantErr:   true,
		},
		{
			name:      "empty branch is fatal",
			branch:    "",
			runNumber: 1,
			base:      "1.2.0",
			wantErr:   true,
		},
	}

	resolver := usecase.NewVersionResolver("main")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(tt.branch, tt.runNumber, tt.base)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, got.Version).Equal(tt.wantVersion)
			gt.Value(t, got.Channel).Equal(tt.wantChannel)
			gt.Value(t, got.Base).Equal(tt.base)
		})
	}
}

func TestVersionResolver_Deterministic(t *testing.T) {
	resolver := usecase.NewVersionResolver("main")

	first, err := resolver.Resolve("feature/x", 42, "1.2.0")
	gt.NoError(t, err)
	second, err := resolver.Resolve("feature/x", 42, "1.2.0")
	gt.NoError(t, err)

	gt.Value(t, first.Version).Equal(second.Version)
	gt.Value(t, first.Channel).Equal(second.Channel)
}

func TestVersionResolver_CustomReleaseBranch(t *testing.T) {
	resolver := usecase.NewVersionResolver("release")

	stable, err := resolver.Resolve("release", 3, "2.0.0")
	gt.NoError(t, err)
	gt.Value(t, stable.Version).Equal("2.0.0")
	gt.Value(t, stable.Channel).Equal(types.ChannelStable)

	dev, err := resolver.Resolve("main", 3, "2.0.0")
	gt.NoError(t, err)
	gt.Value(t, dev.Version).Equal("2.0.0-dev.3")
	gt.Value(t, dev.Channel).Equal(types.ChannelDev)
}
