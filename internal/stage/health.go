package stage

// Health reports whether a pipeline stage is ready to process jobs.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy builds a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy builds a not-ready Health record with detail for operators.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
