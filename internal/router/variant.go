package router

// Variant is the closed set of router module capability profiles. The exposed
// operation set is defined explicitly per variant instead of disabling
// inherited entry points one by one, so adding a base operation can never
// silently leak into a restricted profile.
type Variant uint8

const (
	// VariantRaw exposes only the opaque-payload entry points: the maximally
	// general, maximally trusted primitive.
	VariantRaw Variant = iota + 1
	// VariantStructured exposes one typed operation per known action kind and
	// closes the raw entry points.
	VariantStructured
	// VariantHardened is VariantStructured plus call-time oracle pre-flight
	// validation on every typed operation.
	VariantHardened
)

// String names the variant for logs and errors.
func (v Variant) String() string {
	switch v {
	case VariantRaw:
		return "raw"
	case VariantStructured:
		return "structured"
	case VariantHardened:
		return "hardened"
	default:
		return "unknown"
	}
}

func (v Variant) rawEnabled() bool   { return v == VariantRaw }
func (v Variant) typedEnabled() bool { return v == VariantStructured || v == VariantHardened }
func (v Variant) hardened() bool     { return v == VariantHardened }
