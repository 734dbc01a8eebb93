package main

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/crowdsale/internal/config"
	"github.com/blues/crowdsale/internal/repository"
)

func TestCustodyWarning(t *testing.T) {
	assert.Empty(t, custodyWarning("memory"))
	assert.Empty(t, custodyWarning(""))
	assert.Contains(t, custodyWarning("postgres"), "lost on restart")
}

func TestOpenStore(t *testing.T) {
	store, err := openStore(&config.Config{Database: config.DatabaseConfig{Driver: "memory"}})
	require.NoError(t, err)
	assert.IsType(t, &repository.MemoryStore{}, store)

	_, err = openStore(&config.Config{Database: config.DatabaseConfig{Driver: "mysql"}})
	assert.Error(t, err)
}

func TestNewApp(t *testing.T) {
	cfg := &config.Config{
		Engine: config.EngineConfig{
			Admin:  "0x00000000000000000000000000000000000000ad",
			Escrow: "0x00000000000000000000000000000000000000ee",
		},
		Rates: map[string]string{"usd": "3"},
	}
	a, err := newApp(cfg, repository.NewMemoryStore())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xad"), a.engine.Admin())

	cfg.Engine.Escrow = ""
	_, err = newApp(cfg, repository.NewMemoryStore())
	assert.Error(t, err)
}
