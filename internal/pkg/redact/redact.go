// redact — маскирование чувствительных значений перед записью в логи.
package redact

// Username маскирует имя пользователя, оставляя только первые два символа.
func Username(s string) string {
	r := []rune(s)
	if len(r) <= 2 {
		return "***"
	}

	return string(r[:2]) + "***"
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
