package fusion

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Weights holds the per-source fusion weights and the consistency penalty
// points. The defaults are fixed policy; a weights file can override them
// for experimentation.
type Weights struct {
	Registry  float64   `yaml:"registry"`
	Address   float64   `yaml:"address"`
	Phone     float64   `yaml:"phone"`
	Web       float64   `yaml:"web"`
	Penalties Penalties `yaml:"penalties"`
}

// Penalties are the additive points subtracted for inconsistent signals.
type Penalties struct {
	// RegistryConflict applies when the registry check failed while the
	// address or phone check succeeded.
	RegistryConflict float64 `yaml:"registry_conflict"`
	// SingleSource applies when exactly one of registry/address/phone
	// validated successfully.
	SingleSource float64 `yaml:"single_source"`
	// InputMismatch applies when the registry record explicitly did not
	// match the roster input.
	InputMismatch float64 `yaml:"input_mismatch"`
}

// DefaultWeights returns the standard fusion policy.
func DefaultWeights() Weights {
	return Weights{
		Registry: 0.40,
		Address:  0.30,
		Phone:    0.20,
		Web:      0.10,
		Penalties: Penalties{
			RegistryConflict: 10,
			SingleSource:     5,
			InputMismatch:    15,
		},
	}
}

// LoadWeights reads a weights override from a YAML file. An empty path
// returns the defaults. Overridden weights must still sum to 1.
func LoadWeights(path string) (Weights, error) {
	if path == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, eris.Wrapf(err, "fusion: read weights %s", path)
	}

	var wrapper struct {
		Fusion Weights `yaml:"fusion"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Weights{}, eris.Wrap(err, "fusion: parse weights")
	}

	w := wrapper.Fusion
	if err := w.validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

func (w Weights) validate() error {
	sum := w.Registry + w.Address + w.Phone + w.Web
	if math.Abs(sum-1.0) > 1e-9 {
		return eris.Errorf("fusion: weights sum to %.4f, want 1.0", sum)
	}
	for _, p := range []float64{w.Penalties.RegistryConflict, w.Penalties.SingleSource, w.Penalties.InputMismatch} {
		if p < 0 {
			return eris.New("fusion: penalties must be >= 0")
		}
	}
	return nil
}
