package bridgeclient

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ReadyPrefix starts the readiness banner on the host's stdout.
const ReadyPrefix = "GDRB_READY:"

// Banner is the readiness announcement: the launcher's sole discovery
// mechanism for port and token.
type Banner struct {
	Proto       string `json:"proto"`
	Port        int    `json:"port"`
	Token       string `json:"token"`
	TierDefault int    `json:"tier_default"`
	InputMode   string `json:"input_mode"`
}

// ParseBanner parses a banner line, with or without the stdout prefix.
func ParseBanner(line string) (*Banner, error) {
	line = strings.TrimSpace(line)
	payload, found := strings.CutPrefix(line, ReadyPrefix)
	if !found {
		if !strings.HasPrefix(line, "{") {
			return nil, fmt.Errorf("not a readiness banner: %.80s", line)
		}
		payload = line
	}

	var b Banner
	if err := json.Unmarshal([]byte(payload), &b); err != nil {
		return nil, fmt.Errorf("banner payload: %w", err)
	}
	if b.Port <= 0 || b.Token == "" {
		return nil, fmt.Errorf("banner missing port or token: %.80s", payload)
	}
	return &b, nil
}

// ReadBannerFile loads a banner from the ready-file side channel, for
// hosts launched without a captured stdout.
func ReadBannerFile(path string) (*Banner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ready file: %w", err)
	}
	return ParseBanner(string(data))
}
