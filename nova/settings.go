package nova

import (
	"github.com/Laisky/errors/v2"
)

// ModelSettings tunes a single request. Zero values mean "service default".
type ModelSettings struct {
	MaxTokens     int
	Temperature   *float64
	TopP          *float64
	TopK          *int
	StopSequences []string
}

// Nova accepts temperature in [0,1], unlike the OpenAI-style [0,2] range.
const maxTemperature = 1.0

// validateSettings rejects values the Nova family does not accept, so a bad
// request fails before the network call instead of as an opaque 400.
func validateSettings(settings *ModelSettings) error {
	if settings == nil {
		return nil
	}
	if settings.MaxTokens < 0 {
		return errors.Errorf("maxTokens must not be negative, got %d", settings.MaxTokens)
	}
	if settings.Temperature != nil {
		if *settings.Temperature < 0 || *settings.Temperature > maxTemperature {
			return errors.Errorf("temperature must be within [0, %g], got %g", maxTemperature, *settings.Temperature)
		}
	}
	if settings.TopP != nil {
		if *settings.TopP <= 0 || *settings.TopP > 1 {
			return errors.Errorf("topP must be within (0, 1], got %g", *settings.TopP)
		}
	}
	if settings.TopK != nil && *settings.TopK <= 0 {
		return errors.Errorf("topK must be positive, got %d", *settings.TopK)
	}
	for _, s := range settings.StopSequences {
		if s == "" {
			return errors.New("stop sequences must not be empty strings")
		}
	}
	return nil
}

func (s *ModelSettings) inferenceConfig(defaultMaxTokens int) *inferenceConfig {
	cfg := &inferenceConfig{MaxTokens: defaultMaxTokens}
	if s == nil {
		return cfg
	}
	if s.MaxTokens > 0 {
		cfg.MaxTokens = s.MaxTokens
	}
	cfg.Temperature = s.Temperature
	cfg.TopP = s.TopP
	cfg.TopK = s.TopK
	if len(s.StopSequences) > 0 {
		filtered := make([]string, 0, len(s.StopSequences))
		for _, seq := range s.StopSequences {
			if seq != "" {
				filtered = append(filtered, seq)
			}
		}
		cfg.StopSequences = filtered
	}
	return cfg
}
