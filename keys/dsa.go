package keys

import (
	"crypto/dsa"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
)

// sskDSAParams is the fixed DSA group every SSK/KSK signature in this
// package is generated and verified against. Signer and verifier must
// share one parameter set for signatures to mean anything, so the group
// is generated exactly once per process.
var (
	sskDSAParams     dsa.Parameters
	sskDSAParamsOnce sync.Once
	sskDSAParamsErr  error
)

func dsaParams() (dsa.Parameters, error) {
	sskDSAParamsOnce.Do(func() {
		var p dsa.Parameters
		sskDSAParamsErr = dsa.GenerateParameters(&p, rand.Reader, dsa.L1024N160)
		sskDSAParams = p
	})
	return sskDSAParams, sskDSAParamsErr
}

// generateDSAKeypair produces a fresh DSA keypair over the shared group.
func generateDSAKeypair() (*dsa.PrivateKey, error) {
	params, err := dsaParams()
	if err != nil {
		return nil, fmt.Errorf("keys: dsa parameters: %w", err)
	}
	priv := new(dsa.PrivateKey)
	priv.Parameters = params
	if err := dsa.GenerateKey(priv, rand.Reader); err != nil {
		return nil, fmt.Errorf("keys: dsa key generation: %w", err)
	}
	return priv, nil
}

// publicKeyMPIBytes encodes a DSA public key for routing-key
// derivation: the Y component as an unsigned big-endian byte string.
func publicKeyMPIBytes(pub *dsa.PublicKey) []byte {
	return pub.Y.Bytes()
}

func signDSA(priv *dsa.PrivateKey, digest []byte) (r, s *big.Int, err error) {
	return dsa.Sign(rand.Reader, priv, digest)
}

func verifyDSA(pub *dsa.PublicKey, digest []byte, r, s *big.Int) bool {
	return dsa.Verify(pub, digest, r, s)
}
