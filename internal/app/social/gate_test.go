package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullProvider() MapProvider {
	m := MapProvider{}
	for _, keys := range RequiredKeys {
		for _, k := range keys {
			m[k] = "x"
		}
	}
	return m
}

func TestConfigGateReportsEveryMissingKey(t *testing.T) {
	p := fullProvider()
	delete(p, KeyTwitterAccessSecret)
	delete(p, KeyTelegramChannelID)

	gate := NewConfigGate(p, []PlatformID{Twitter, Telegram})
	err := gate.EnsureReady()
	require.Error(t, err)

	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindConfig, e.Kind)
	assert.Equal(t, CodeConfig, e.Code)
	assert.ElementsMatch(t, []string{KeyTwitterAccessSecret, KeyTelegramChannelID}, e.Missing)
	assert.Equal(t, 500, e.HTTPStatus())
}

func TestConfigGateScope(t *testing.T) {
	p := fullProvider()
	delete(p, KeyGitHubToken)

	gate := NewConfigGate(p, []PlatformID{Twitter, LinkedIn})
	assert.NoError(t, gate.EnsureReady())
	assert.Error(t, gate.EnsureReady(GitHub))
	assert.False(t, gate.Ready(GitHub))
	assert.True(t, gate.Ready(Twitter))
}

func TestConfigGateTreatsBlankAsMissing(t *testing.T) {
	p := fullProvider()
	p[KeyGitHubToken] = "   "

	err := NewConfigGate(p, nil).EnsureReady()
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, []string{KeyGitHubToken}, e.Missing)
}

func TestConfigGateDefaultScopeIsAllPlatforms(t *testing.T) {
	gate := NewConfigGate(MapProvider{}, nil)
	assert.Equal(t, SupportedPlatforms(), gate.Scope())

	e, ok := AsError(gate.EnsureReady())
	require.True(t, ok)
	total := 0
	for _, keys := range RequiredKeys {
		total += len(keys)
	}
	assert.Len(t, e.Missing, total)
}

func TestParsePlatformList(t *testing.T) {
	ps, unknown := ParsePlatformList(" Twitter,github,,myspace,twitter ")
	assert.Equal(t, []PlatformID{Twitter, GitHub}, ps)
	assert.Equal(t, []string{"myspace"}, unknown)
}
