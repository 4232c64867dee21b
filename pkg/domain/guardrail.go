package domain

// GuardrailConfig controls the compliance guard. EncryptionAtRest is
// declarative only: it documents a deployment requirement and is not
// enforced by this layer.
type GuardrailConfig struct {
	Enabled          bool
	Kinds            []GuardrailKind
	PIIDetection     bool
	EncryptionAtRest bool
	AuditLogging     bool
	PolicyRefs       []string
}

// DefaultGuardrailConfig enables every guardrail the core enforces.
func DefaultGuardrailConfig() GuardrailConfig {
	return GuardrailConfig{
		Enabled:          true,
		Kinds:            []GuardrailKind{GuardrailDataValidation, GuardrailPrivacyCompliance, GuardrailLoggingMonitoring},
		PIIDetection:     true,
		EncryptionAtRest: true,
		AuditLogging:     true,
	}
}
