package stage

// Health summarizes the readiness of a pipeline stage. A degraded stage still
// runs but falls back to a best-effort result (copying unmuted audio, assuming
// the default language).
type Health struct {
	Name     string
	Ready    bool
	Degraded bool
	Detail   string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Degraded constructs a ready-but-degraded Health record.
func Degraded(name, detail string) Health {
	return Health{Name: name, Ready: true, Degraded: true, Detail: detail}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
