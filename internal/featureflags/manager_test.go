package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0,always=100%,never=0%,junk=maybe")

	tests := []struct {
		flag string
		want bool
	}{
		{"a", true},
		{"b", false},
		{"c", true},
		{"d", false},
		{"e", true},
		{"f", false},
		{"always", true},
		{"never", false},
		{"junk", false},
		{"missing", false},
		{" A ", true},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Enabled(tt.flag, 1))
		})
	}
}

func TestEnabled_PartialRollout(t *testing.T) {
	m := NewManager("canary=25%")

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout must be deterministic per user")
	}
	assert.False(t, m.Enabled("canary", 0))

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("canary", id) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 100)
}

func TestNewManager_SkipsMalformedPairs(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off,=on,w= ")

	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())
	assert.Len(t, m.Snapshot(123), 3)
}

func TestMerge_StoredOverridesConfig(t *testing.T) {
	base := NewManager("xp_rewards=off,feed=on")
	stored := NewManagerFromMap(map[string]string{" XP_REWARDS ": "ON", "empty": ""})

	merged := base.Merge(stored)
	assert.True(t, merged.Enabled(XpRewards, 1))
	assert.True(t, merged.Enabled("feed", 1))
	assert.NotContains(t, merged.Raw(), "empty")
	assert.False(t, base.Enabled(XpRewards, 1), "merge must not mutate the receiver")
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(XpRewards, 1))
	assert.Empty(t, m.Raw())
	assert.Empty(t, m.Snapshot(1))
	assert.True(t, m.Merge(NewManager("a=on")).Enabled("a", 1))
}

func TestValidValue(t *testing.T) {
	for _, v := range []string{"on", "OFF", "true", "0", "25%", "100%", "0%"} {
		assert.True(t, ValidValue(v), v)
	}
	for _, v := range []string{"", "maybe", "101%", "-1%", "x%"} {
		assert.False(t, ValidValue(v), v)
	}
}
