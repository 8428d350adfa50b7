package attestations

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/shared/bytesutil"
)

// attestationDomain separates bridge attestation digests from any other
// message a validator key might sign.
var attestationDomain = []byte("THRESHBRIDGE_ATTEST")

// Digest computes the canonical message a validator signs to attest tx. It
// binds the transaction nonce, user, amount, and both chain ids, so a
// signature replayed for any other transaction or by any other signer fails
// recovery.
func Digest(tx *types.BridgeTransaction) [32]byte {
	h := crypto.Keccak256(
		attestationDomain,
		bytesutil.Bytes8(tx.Nonce),
		tx.User.Bytes(),
		bytesutil.Bytes8(tx.Amount),
		bytesutil.Bytes8(tx.SourceChainID),
		bytesutil.Bytes8(tx.DestChainID),
	)
	var digest [32]byte
	copy(digest[:], h)
	return digest
}

// RecoverSigner recovers the address that produced the 65-byte [R || S || V]
// signature over digest.
func RecoverSigner(digest [32]byte, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, types.ErrInvalidSignature
	}
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return common.Address{}, types.ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Sign produces an attestation signature over the canonical digest of tx.
// Validators run this off-process; it is exported for their tooling and for
// tests.
func Sign(tx *types.BridgeTransaction, key *ecdsa.PrivateKey) ([]byte, error) {
	digest := Digest(tx)
	return crypto.Sign(digest[:], key)
}
