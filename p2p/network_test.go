package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetwork_Validate(t *testing.T) {
	tests := []struct {
		in      Network
		want    Network
		wantErr bool
	}{
		{in: "mainnet", want: Mainnet},
		{in: "arabica", want: Arabica},
		{in: "mocha", want: Mocha},
		{in: Mocha, want: Mocha},
		{in: "my-devnet-1", want: "my-devnet-1"}, // custom networks pass through
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := tt.in.Validate()
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidNetwork)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestNetwork_IsCustom(t *testing.T) {
	assert.False(t, Mainnet.IsCustom())
	assert.False(t, Mocha.IsCustom())
	assert.True(t, Network("my-devnet-1").IsCustom())
}

func TestBootstrappersFor(t *testing.T) {
	for _, net := range []Network{Mainnet, Arabica, Mocha} {
		infos, err := BootstrappersFor(net)
		require.NoError(t, err)
		assert.NotEmpty(t, infos)
		for _, info := range infos {
			assert.NotEmpty(t, info.ID)
			assert.NotEmpty(t, info.Addrs)
		}
	}

	// custom networks have no built-in bootstrappers
	infos, err := BootstrappersFor("my-devnet-1")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestConfig_BootstrappersFor(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	// override replaces the built-in list
	cfg.Bootstrappers = bootstrapList[Mocha][:1]
	infos, err := cfg.BootstrappersFor(Mainnet)
	require.NoError(t, err)
	require.Len(t, infos, 1)

	cfg.Bootstrappers = []string{"not a multiaddr"}
	_, err = cfg.BootstrappersFor(Mainnet)
	assert.Error(t, err)
}
