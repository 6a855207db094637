package stage

// Health summarizes whether a stage can run: its external binaries and
// credentials are present. Optional checks never block a run.
type Health struct {
	Name     string
	Ready    bool
	Optional bool
	Detail   string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// FromError returns Healthy when err is nil and Unhealthy otherwise.
func FromError(name string, err error) Health {
	if err != nil {
		return Unhealthy(name, err.Error())
	}
	return Healthy(name)
}

// AllReady reports whether every non-optional record is ready.
func AllReady(checks []Health) bool {
	for _, check := range checks {
		if !check.Ready && !check.Optional {
			return false
		}
	}
	return true
}
