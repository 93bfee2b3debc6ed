// Package keys implements the client-key/node-key model: the typed
// ClientKey variants (Chk/Ssk/Usk/Ksk) and the NodeKey routing identity
// each one derives.
package keys

import (
	"bytes"
	"crypto/dsa"
	"fmt"
	"math/big"

	"github.com/hyphanet/corelib/herrors"
	"github.com/hyphanet/corelib/primitives"
)

const (
	BaseTypeCHK uint8 = 1
	BaseTypeSSK uint8 = 2

	RoutingKeyLength = 32

	NodeChkFullKeyLength = 34
	NodeSskFullKeyLength = 66
)

// NodeChk is the routing identity of a content-hash block.
type NodeChk struct {
	routing    [32]byte
	cryptoAlgo primitives.CryptoAlgorithm
}

func NewNodeChk(routing []byte, algo primitives.CryptoAlgorithm) (NodeChk, error) {
	if len(routing) != RoutingKeyLength {
		return NodeChk{}, herrors.MalformedURI("routing key must be 32 bytes", nil)
	}
	if !algo.Valid() {
		return NodeChk{}, herrors.Unsupported(fmt.Sprintf("crypto algorithm %d", algo))
	}
	var nc NodeChk
	copy(nc.routing[:], routing)
	nc.cryptoAlgo = algo
	return nc, nil
}

func (k NodeChk) Routing() []byte { return append([]byte(nil), k.routing[:]...) }

func (k NodeChk) CryptoAlgorithm() primitives.CryptoAlgorithm { return k.cryptoAlgo }

// FullKey is the 34-byte wire layout: base_type(1) || crypto_algo(1) || routing(32).
func (k NodeChk) FullKey() []byte {
	out := make([]byte, NodeChkFullKeyLength)
	out[0] = BaseTypeCHK
	out[1] = byte(k.cryptoAlgo)
	copy(out[2:], k.routing[:])
	return out
}

func (k NodeChk) ToNormalizedDouble() float64 {
	return keyDigestAsNormalizedDouble(sha256Digest(k.routing[:], []byte{BaseTypeCHK, byte(k.cryptoAlgo)}))
}

func (k NodeChk) Equals(other NodeChk) bool {
	return k.cryptoAlgo == other.cryptoAlgo && bytes.Equal(k.routing[:], other.routing[:])
}

// NodeSsk is the routing identity of a signed-subspace block:
// routing = SHA-256(eh_docname || pubKeyHash), where pubKeyHash is
// SHA-256 of the subspace's public key.
type NodeSsk struct {
	routing    [32]byte
	cryptoAlgo primitives.CryptoAlgorithm
	ehDocname  [32]byte
	pubKeyHash [32]byte
	pubKey     *dsa.PublicKey
}

func NewNodeSsk(pubKeyHash, ehDocname []byte, pubKey *dsa.PublicKey, algo primitives.CryptoAlgorithm) (NodeSsk, error) {
	if len(pubKeyHash) != 32 {
		return NodeSsk{}, herrors.MalformedURI("public key hash must be 32 bytes", nil)
	}
	if len(ehDocname) != 32 {
		return NodeSsk{}, herrors.MalformedURI("eh_docname must be 32 bytes", nil)
	}
	if !algo.Valid() {
		return NodeSsk{}, herrors.Unsupported(fmt.Sprintf("crypto algorithm %d", algo))
	}
	if pubKey != nil {
		if !bytes.Equal(sha256Digest(publicKeyMPIBytes(pubKey)), pubKeyHash) {
			return NodeSsk{}, herrors.VerifyFailed(herrors.KeyTypeSSK, "public key does not match routing seed", nil)
		}
	}

	var ns NodeSsk
	copy(ns.pubKeyHash[:], pubKeyHash)
	copy(ns.ehDocname[:], ehDocname)
	ns.cryptoAlgo = algo
	ns.pubKey = pubKey
	copy(ns.routing[:], sha256Digest(ehDocname, pubKeyHash))
	return ns, nil
}

func (k NodeSsk) Routing() []byte { return append([]byte(nil), k.routing[:]...) }

func (k NodeSsk) CryptoAlgorithm() primitives.CryptoAlgorithm { return k.cryptoAlgo }

func (k NodeSsk) EhDocname() []byte { return append([]byte(nil), k.ehDocname[:]...) }

func (k NodeSsk) PubKeyHash() []byte { return append([]byte(nil), k.pubKeyHash[:]...) }

func (k NodeSsk) PubKey() *dsa.PublicKey { return k.pubKey }

// WithPubKey returns a copy with the public key attached, after verifying
// it matches the routing seed recorded at construction.
func (k NodeSsk) WithPubKey(pub *dsa.PublicKey) (NodeSsk, error) {
	if !bytes.Equal(sha256Digest(publicKeyMPIBytes(pub)), k.pubKeyHash[:]) {
		return NodeSsk{}, herrors.VerifyFailed(herrors.KeyTypeSSK, "public key does not match routing seed", nil)
	}
	k.pubKey = pub
	return k, nil
}

// FullKey is the 66-byte wire layout: base_type_hi(1) || base_type_lo(1) ||
// eh_docname(32) || routing(32).
func (k NodeSsk) FullKey() []byte {
	out := make([]byte, NodeSskFullKeyLength)
	out[0] = 0
	out[1] = BaseTypeSSK
	copy(out[2:34], k.ehDocname[:])
	copy(out[34:], k.routing[:])
	return out
}

func (k NodeSsk) ToNormalizedDouble() float64 {
	return keyDigestAsNormalizedDouble(sha256Digest(k.routing[:], []byte{0, BaseTypeSSK}))
}

func (k NodeSsk) Equals(other NodeSsk) bool {
	return k.cryptoAlgo == other.cryptoAlgo &&
		bytes.Equal(k.pubKeyHash[:], other.pubKeyHash[:]) &&
		bytes.Equal(k.ehDocname[:], other.ehDocname[:])
}

func sha256Digest(parts ...[]byte) []byte {
	return primitives.SHA256(parts...)
}

// keyDigestAsNormalizedDouble converts a hash digest to a 0.0-1.0
// value for location-based routing: the first 8 digest bytes as a
// signed 64-bit int, rebased to unsigned, divided by 2^63.
func keyDigestAsNormalizedDouble(digest []byte) float64 {
	var value int64
	for i := 0; i < 8 && i < len(digest); i++ {
		value = (value << 8) | int64(digest[i])
	}
	bigValue := new(big.Int).SetInt64(value)
	if value < 0 {
		bigValue.Add(bigValue, new(big.Int).Lsh(big.NewInt(1), 63))
	}
	divisor := new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 63))
	result := new(big.Float).SetInt(bigValue)
	result.Quo(result, divisor)
	out, _ := result.Float64()
	return out
}
