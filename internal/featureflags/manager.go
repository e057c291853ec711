// Package featureflags evaluates on/off and percentage-rollout flags from
// config, optionally overridden by values stored in the database.
package featureflags

import (
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// XpRewards gates the XP awards granted for comments and prayer commits.
const XpRewards = "xp_rewards"

// Manager holds a set of normalized flag values.
//
// Accepted values are on/true/1, off/false/0 and N% for a deterministic
// per-user rollout, e.g. "xp_rewards=on,new_feed=25%".
type Manager struct {
	flags map[string]string
}

// NewManager parses a comma-separated key=value list. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	values := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		values[key] = value
	}
	return NewManagerFromMap(values)
}

// NewManagerFromMap builds a manager from stored values. Blank keys and values are dropped.
func NewManagerFromMap(values map[string]string) *Manager {
	flags := make(map[string]string, len(values))
	for k, v := range values {
		if key, value := normalize(k), normalize(v); key != "" && value != "" {
			flags[key] = value
		}
	}
	return &Manager{flags: flags}
}

// Merge returns a manager holding m's flags with other's taking precedence.
func (m *Manager) Merge(other *Manager) *Manager {
	flags := m.Raw()
	if other != nil {
		maps.Copy(flags, other.flags)
	}
	return &Manager{flags: flags}
}

// Enabled reports whether name is on for userID. Unknown flags and
// unparseable values are off, and a partial rollout never includes user 0.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}
	pct, ok := rolloutPercent(value)
	switch {
	case !ok || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	default:
		return rolloutBucket(name, userID) < pct
	}
}

// Raw returns a copy of the flag values.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.flags)
}

// Snapshot evaluates every known flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool)
	if m == nil {
		return out
	}
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

// ValidValue reports whether value is one of the accepted forms with a
// percentage between 0 and 100.
func ValidValue(value string) bool {
	pct, ok := rolloutPercent(normalize(value))
	return ok && pct >= 0 && pct <= 100
}

// rolloutPercent maps a normalized value to the share of users it enables.
func rolloutPercent(value string) (int, bool) {
	switch value {
	case "on", "true", "1":
		return 100, true
	case "off", "false", "0":
		return 0, true
	}
	raw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return pct, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
