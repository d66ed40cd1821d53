package validatepoolsubmission

import "time"

type Config struct {
	Timeout time.Duration
	// ThrowOnInvalid makes an invalid submission a BPMN error instead of a
	// completed job with isValid=false.
	ThrowOnInvalid bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        10 * time.Second,
		ThrowOnInvalid: true,
	}
}
