// Package engine implements the three CIM execution engines. All of them run
// the same butterfly network as the ideal transform but inject a physically
// motivated corruption model: a behavioral ADC front-end (adc), a bit-serial
// charge-sharing accumulator (charge), and an explicit crossbar signal path
// (xbar).
package engine

import "fmt"

// Engine runs one corrupted Hadamard transform over a signal.
type Engine interface {
	// Name identifies the engine model: "adc", "charge", or "xbar".
	Name() string

	// Apply transforms x through the engine's physical model. The input is
	// not modified. The output has the same length as x.
	Apply(x []float64) ([]float64, error)
}

// ParameterError reports an engine parameter outside its valid domain. It is
// raised when a Spec is validated at build time, never mid-transform.
type ParameterError struct {
	Param  string
	Reason string
}

func (e ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

func checkSignalLength(got, want int) error {
	if got != want {
		return fmt.Errorf("signal length %d does not match engine size %d", got, want)
	}
	return nil
}
