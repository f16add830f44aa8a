package driver

// Trace is the `--trace` artifact of spec §4.11: the resolved
// dependency graph and per-pass timings, serialised as YAML so the
// driver's orchestration is inspectable without the (out-of-scope)
// diagnostic renderer.
type Trace struct {
	RunID        string       `yaml:"run_id"`
	Dependencies []DepTrace   `yaml:"dependencies"`
	Passes       []PassTiming `yaml:"passes"`
}

// DepTrace records one resolved dependency's chosen version and
// whether its archive came from the local cache or the network.
type DepTrace struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	FromCache bool   `yaml:"from_cache"`
}

// PassTiming records one pipeline stage's wall-clock duration.
type PassTiming struct {
	Name     string `yaml:"name"`
	Duration string `yaml:"duration"`
}
