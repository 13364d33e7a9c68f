package cctp

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/zendoolabs/zend/log"
)

// Protocol size constants. These are consensus constants compiled into the
// node; the startup self-check asserts they agree with the values the
// linked proving-system backend reports.
const (
	FieldElementSizeBytes  = 32
	MaxCustomDataSizeBytes = 1024
	MaxProofSizeBytes      = 8192
	MaxVKeySizeBytes       = 8192
)

func backendFieldSizeInBytes() int { return fr.Bytes }

func backendCustomDataSizeInBytes() int { return 32 * fr.Bytes }

// VerifyTypeSizes compares the compile-time size constants against the
// sizes reported by the cryptographic backend.
func VerifyTypeSizes() error {
	if FieldElementSizeBytes != backendFieldSizeInBytes() {
		return fmt.Errorf("unexpected field element size: %d (backend reports %d)",
			FieldElementSizeBytes, backendFieldSizeInBytes())
	}
	if MaxCustomDataSizeBytes != backendCustomDataSizeInBytes() {
		return fmt.Errorf("unexpected custom data size: %d (backend reports %d)",
			MaxCustomDataSizeBytes, backendCustomDataSizeInBytes())
	}
	return nil
}

// CheckTypeSizes aborts the node if the backend build is binary
// incompatible with the compiled-in size constants. Called once at startup.
func CheckTypeSizes() {
	if err := VerifyTypeSizes(); err != nil {
		log.Crit(log.CctpMonitoring, "backend size self-check failed", "err", err)
	}
}
