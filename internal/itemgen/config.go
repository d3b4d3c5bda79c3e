package itemgen

// Config controls the LLM generator and reviewer.
type Config struct {
	// BatchSize is the default number of items per generation call.
	BatchSize int `mapstructure:"batch_size"`

	// MaxTokens is the token budget for a generation response.
	MaxTokens int `mapstructure:"max_tokens"`

	// ReviewMaxTokens is the token budget for a review response.
	ReviewMaxTokens int `mapstructure:"review_max_tokens"`

	// Temperature controls generation randomness (0.0-1.0). Reviews always
	// run at zero.
	Temperature float64 `mapstructure:"temperature"`

	// MaxPriorAnswers caps the answers sent for deduplication.
	MaxPriorAnswers int `mapstructure:"max_prior_answers"`
}

// DefaultConfig returns the recommended generator settings.
func DefaultConfig() Config {
	return Config{
		BatchSize:       10,
		MaxTokens:       4096,
		ReviewMaxTokens: 2048,
		Temperature:     0.8,
		MaxPriorAnswers: 30,
	}
}
