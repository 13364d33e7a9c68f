package cctp

import "errors"

var (
	ErrFieldElementSize = errors.New("cctp: field element byte size mismatch")
	ErrProofTooLarge    = errors.New("cctp: proof exceeds maximum byte size")
	ErrVKeyTooLarge     = errors.New("cctp: verification key exceeds maximum byte size")
	ErrInvalidOperand   = errors.New("cctp: cannot hash null or invalid field elements")
	ErrTreeFinalized    = errors.New("cctp: commitment tree already finalized")
	ErrTreeFreed        = errors.New("cctp: commitment tree handle released")
	ErrTooManyInputs    = errors.New("cctp: statement preimage slot count exceeded")
	ErrUncompressedSize = errors.New("cctp: uncompressed bit vector size does not match declared size")
	ErrUnknownAlgorithm = errors.New("cctp: unknown bit vector compression algorithm")
	ErrEmptyBitVector   = errors.New("cctp: empty compressed bit vector")
)

// ErrorCode is the per-item status reported by the batch verifier and the
// commitment tree, mirroring the backend's C-style return codes.
type ErrorCode int

const (
	ErrorCodeOK ErrorCode = iota
	ErrorCodeInvalidValue
	ErrorCodeInvalidProof
	ErrorCodeInvalidVKey
	ErrorCodeInvalidStatement
	ErrorCodeProofVerificationFailure
	ErrorCodeMerkleTreeError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeOK:
		return "OK"
	case ErrorCodeInvalidValue:
		return "InvalidValue"
	case ErrorCodeInvalidProof:
		return "InvalidProof"
	case ErrorCodeInvalidVKey:
		return "InvalidVKey"
	case ErrorCodeInvalidStatement:
		return "InvalidStatement"
	case ErrorCodeProofVerificationFailure:
		return "ProofVerificationFailure"
	case ErrorCodeMerkleTreeError:
		return "MerkleTreeError"
	default:
		return "Unknown"
	}
}
