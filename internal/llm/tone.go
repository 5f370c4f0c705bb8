package llm

// EmojiStyle controls emoji usage in generated listing copy.
type EmojiStyle string

const (
	EmojiNone    EmojiStyle = "none"
	EmojiMinimal EmojiStyle = "minimal"
	EmojiFull    EmojiStyle = "full"
)

// ToneConfig is the set of recognized options controlling generated
// listing copy.
type ToneConfig struct {
	// SalesIntensity ranges 1 (factual) to 5 (persuasive).
	SalesIntensity int `json:"sales_intensity"`
	// NerdFactor ranges 1 (general audience) to 5 (collector depth).
	NerdFactor     int        `json:"nerd_factor"`
	EmojiStyle     EmojiStyle `json:"emoji_style"`
	IncludeFunFact bool       `json:"include_fun_fact"`
	IncludeDadJoke bool       `json:"include_dad_joke"`
}

// Normalize clamps intensity scales into 1-5 and defaults the emoji style.
func (c *ToneConfig) Normalize() {
	c.SalesIntensity = clampScale(c.SalesIntensity)
	c.NerdFactor = clampScale(c.NerdFactor)
	switch c.EmojiStyle {
	case EmojiNone, EmojiMinimal, EmojiFull:
	default:
		c.EmojiStyle = EmojiNone
	}
}

func clampScale(n int) int {
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}
