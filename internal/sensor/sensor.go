package sensor

// Descriptor identifies a sensor for one polling round. The address is
// the unique hardware identifier; the alias is a human-readable name
// and may be empty.
type Descriptor struct {
	Address string
	Alias   string
}

// Name returns the alias if set, otherwise the address.
func (d Descriptor) Name() string {
	if d.Alias != "" {
		return d.Alias
	}

	return d.Address
}

// Measurement is a single decoded sensor reading. Only Decode
// constructs these.
type Measurement struct {
	TemperatureC float64
	HumidityPct  int
	BatteryVolts float64
}

// Outcome is the terminal result of polling one sensor in a round:
// either a measurement or the error message of the last failed attempt.
type Outcome struct {
	Descriptor  Descriptor
	Measurement *Measurement
	Err         string
}

// OK reports whether the sensor was read successfully.
func (o Outcome) OK() bool {
	return o.Measurement != nil
}

// Succeeded builds a success outcome for a descriptor.
func Succeeded(d Descriptor, m Measurement) Outcome {
	return Outcome{Descriptor: d, Measurement: &m}
}

// Failed builds a failure outcome carrying the last attempt's error.
func Failed(d Descriptor, errMsg string) Outcome {
	return Outcome{Descriptor: d, Err: errMsg}
}
