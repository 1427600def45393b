package resolve

// FrameworkConfig names the caller-configurable receiver/method sets
// used to flag calls that talk to a host framework rather than
// project code (spec §4.3, "Framework tagging"). Hard-coding these
// names would make them a semantic decision instead of the
// configuration knob the spec's Open Questions section requires them
// to be.
type FrameworkConfig struct {
	Receivers map[string]bool
	Methods   map[string]bool
	// MethodReceivers restricts the Methods set match to calls whose
	// receiver is also in this set, per the spec's exact wording:
	// "the method name is in a framework-method set ... and the
	// receiver is in {res, req, app, router}".
	MethodReceivers map[string]bool
}

// DefaultFrameworkConfig returns the receiver/method sets named
// verbatim in spec §4.3.
func DefaultFrameworkConfig() FrameworkConfig {
	return FrameworkConfig{
		Receivers: toSet("res", "req", "app", "next", "router"),
		Methods: toSet(
			"json", "send", "status", "render", "redirect",
			"listen", "use", "get", "post", "put", "delete", "patch", "route",
		),
		MethodReceivers: toSet("res", "req", "app", "router"),
	}
}

// IsFramework reports whether a call with the given receiver/method
// should be tagged isFramework, per spec §4.3's exact predicate.
func (c FrameworkConfig) IsFramework(receiver, method string) bool {
	if receiver != "" && c.Receivers[receiver] {
		return true
	}
	if method != "" && c.Methods[method] && c.MethodReceivers[receiver] {
		return true
	}
	return false
}

func toSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Config bundles the resolver's tunables.
type Config struct {
	Framework FrameworkConfig
}

// DefaultConfig returns the spec's default configuration.
func DefaultConfig() Config {
	return Config{Framework: DefaultFrameworkConfig()}
}
