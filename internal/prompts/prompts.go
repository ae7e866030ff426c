package prompts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Set holds the message templates the pipeline renders. Placeholders use
// {name} syntax; unknown placeholders are left untouched.
type Set struct {
	SystemPrompt    string `yaml:"system_prompt"`
	WarningMessage  string `yaml:"warning_message"`
	TTSMessage      string `yaml:"tts_message"`
	OnSub           string `yaml:"on_sub"`
	OnResub         string `yaml:"on_resub"`
	OnSubGift       string `yaml:"on_sub_gift"`
	OnCommunityGift string `yaml:"on_community_gift"`
	OnBits          string `yaml:"on_bits"`
	OnPrimeUpgrade  string `yaml:"on_prime_upgrade"`
	OnGiftUpgrade   string `yaml:"on_gift_upgrade"`
}

func Defaults() Set {
	return Set{
		SystemPrompt:    "You are the playful AI voice of the channel {channel}. The stream is currently about {game}: {title}, with {viewers} viewers and {followers} followers. Answer in one or two short sentences.",
		WarningMessage:  "That message was rejected by moderation. Keep it friendly!",
		TTSMessage:      "{user} said: {message}",
		OnSub:           "{user} just subscribed to the channel! Thank them.",
		OnResub:         "{user} just resubscribed for {months} months in a row! Thank them.",
		OnSubGift:       "{gifter} just gifted a sub to {user}! Thank the gifter.",
		OnCommunityGift: "{gifter} just gifted {count} subs to the community! Thank them.",
		OnBits:          "{user} just cheered {bits} bits ({total_bits} total) saying: {message}",
		OnPrimeUpgrade:  "{user} upgraded their prime sub to a paid one! Celebrate.",
		OnGiftUpgrade:   "{user} is continuing the sub gifted by {gifter}! Celebrate.",
	}
}

// Load reads template overrides from a YAML file; an empty path keeps the
// defaults.
func Load(path string) (Set, error) {
	set := Defaults()
	if path == "" {
		return set, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return set, fmt.Errorf("read prompts file: %w", err)
	}
	if err := yaml.Unmarshal(data, &set); err != nil {
		return set, fmt.Errorf("parse prompts file: %w", err)
	}
	return set, nil
}

// Render substitutes {name} placeholders with the given values.
func Render(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
