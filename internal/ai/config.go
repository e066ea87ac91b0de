package ai

// Config holds LLM settings from the [ai] section of vita.toml.
type Config struct {
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	SystemPrompt string  `mapstructure:"system_prompt"`
	BaseURL      string  `mapstructure:"base_url"` // empty means the public API
}
