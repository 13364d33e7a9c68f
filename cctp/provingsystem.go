package cctp

// ProvingSystemType tags the proving system a serialized proof or
// verification key belongs to.
type ProvingSystemType uint8

const (
	ProvingSystemTypeUndefined ProvingSystemType = iota
	ProvingSystemTypeGroth16Bn254
)

const (
	provingSysTypeUndefinedStr = "Undefined"
	provingSysTypeGroth16Str   = "Groth16Bn254"
)

func IsValidProvingSystemType(val ProvingSystemType) bool {
	switch val {
	case ProvingSystemTypeGroth16Bn254:
		return true
	default:
		return false
	}
}

func ProvingSystemTypeToString(val ProvingSystemType) string {
	switch val {
	case ProvingSystemTypeGroth16Bn254:
		return provingSysTypeGroth16Str
	default:
		return provingSysTypeUndefinedStr
	}
}

func StringToProvingSystemType(str string) ProvingSystemType {
	if str == provingSysTypeGroth16Str {
		return ProvingSystemTypeGroth16Bn254
	}
	return ProvingSystemTypeUndefined
}

// IsUndefinedProvingSystemType treats the empty string and the explicit
// undefined tag as null semantics.
func IsUndefinedProvingSystemType(str string) bool {
	return str == "" || str == provingSysTypeUndefinedStr
}
