package keys

import (
	"bytes"
	"crypto/dsa"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"

	"github.com/hyphanet/corelib/compress"
	"github.com/hyphanet/corelib/herrors"
	"github.com/hyphanet/corelib/primitives"
)

// ClientKey is the common interface over the four key variants. Chk,
// Ssk, Usk, and Ksk all satisfy it; callers that need variant-specific
// behaviour type-switch on the concrete type.
type ClientKey interface {
	Kind() herrors.KeyType
}

// --- Chk ---------------------------------------------------------------

// Chk is a client-side content-hash key. Decryption is nil until
// supplied by the caller or derived from content during block encode
// (see package block).
type Chk struct {
	Routing      []byte
	Decryption   []byte
	CryptoAlgo   primitives.CryptoAlgorithm
	IsControlDoc bool
	Compression  compress.Algorithm
	Filename     string

	nodeKey *NodeChk
}

func (*Chk) Kind() herrors.KeyType { return herrors.KeyTypeCHK }

func NewChk(routing, decryption []byte, algo primitives.CryptoAlgorithm, isControlDoc bool, comp compress.Algorithm, filename string) (*Chk, error) {
	if len(routing) != RoutingKeyLength {
		return nil, herrors.MalformedURI("CHK routing key must be 32 bytes", nil)
	}
	if decryption != nil && len(decryption) != RoutingKeyLength {
		return nil, herrors.MalformedURI("CHK decryption key must be 32 bytes", nil)
	}
	if !algo.Valid() {
		return nil, herrors.Unsupported(fmt.Sprintf("crypto algorithm %d", algo))
	}
	return &Chk{
		Routing:      append([]byte(nil), routing...),
		Decryption:   append([]byte(nil), decryption...),
		CryptoAlgo:   algo,
		IsControlDoc: isControlDoc,
		Compression:  comp,
		Filename:     filename,
	}, nil
}

// NodeKey derives (and memoises) the routing identity. clone requests an
// independent copy so callers can't mutate the cached value through it -
// Chk/NodeChk are plain value types, so a copy is simply a value copy.
func (c *Chk) NodeKey(clone bool) (NodeChk, error) {
	if c.nodeKey == nil {
		nk, err := NewNodeChk(c.Routing, c.CryptoAlgo)
		if err != nil {
			return NodeChk{}, err
		}
		c.nodeKey = &nk
	}
	if clone {
		cp := *c.nodeKey
		return cp, nil
	}
	return *c.nodeKey, nil
}

func (c *Chk) ExtraBytes() []byte {
	return ChkExtraBytes(c.CryptoAlgo, c.IsControlDoc, c.Compression)
}

// --- Ssk -----------------------------------------------------------------

// Ssk is a client-side signed-subspace key. ExtraMeta holds the
// meta-strings left over after doc_name was popped off the URI path, so
// ToUsk and round-trip serialisation can reattach them.
type Ssk struct {
	Routing    []byte // pubKeyHash, 32 bytes
	Decryption []byte // 32 bytes
	CryptoAlgo primitives.CryptoAlgorithm
	DocName    string
	PubKey     *dsa.PublicKey
	EhDocname  []byte
	ExtraMeta  []string

	nodeKey *NodeSsk
}

func (*Ssk) Kind() herrors.KeyType { return herrors.KeyTypeSSK }

// NewSsk builds a ClientSsk, computing eh_docname = Rijndael-256-ECB(decryption, SHA-256(doc_name)).
func NewSsk(docName string, pubKeyHash, decryption []byte, algo primitives.CryptoAlgorithm, pubKey *dsa.PublicKey, extraMeta []string) (*Ssk, error) {
	if docName == "" {
		return nil, herrors.MalformedURI("SSK document name cannot be empty", nil)
	}
	if len(pubKeyHash) != RoutingKeyLength {
		return nil, herrors.MalformedURI("SSK routing key must be 32 bytes", nil)
	}
	if len(decryption) != RoutingKeyLength {
		return nil, herrors.MalformedURI("SSK decryption key must be 32 bytes", nil)
	}
	if !algo.Valid() {
		return nil, herrors.Unsupported(fmt.Sprintf("crypto algorithm %d", algo))
	}
	if pubKey != nil {
		if !bytes.Equal(sha256Digest(publicKeyMPIBytes(pubKey)), pubKeyHash) {
			return nil, herrors.MalformedURI("SSK public key does not match routing", nil)
		}
	}

	hashedDocname := sha256Digest([]byte(docName))
	ehDocname, err := primitives.ECBEncryptBlock(decryption, hashedDocname)
	if err != nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, err)
	}

	return &Ssk{
		Routing:    append([]byte(nil), pubKeyHash...),
		Decryption: append([]byte(nil), decryption...),
		CryptoAlgo: algo,
		DocName:    docName,
		PubKey:     pubKey,
		EhDocname:  ehDocname,
		ExtraMeta:  append([]string(nil), extraMeta...),
	}, nil
}

func (s *Ssk) NodeKey(clone bool) (NodeSsk, error) {
	if s.nodeKey == nil {
		nk, err := NewNodeSsk(s.Routing, s.EhDocname, s.PubKey, s.CryptoAlgo)
		if err != nil {
			return NodeSsk{}, err
		}
		s.nodeKey = &nk
	}
	if clone {
		cp := *s.nodeKey
		return cp, nil
	}
	return *s.nodeKey, nil
}

func (s *Ssk) ExtraBytes(insert bool) []byte {
	return SskExtraBytes(insert, s.CryptoAlgo)
}

// AttachPublicKey binds a late-arriving public key to this Ssk: a block
// fetched from the network carries the subspace's public key, which the
// client key may not have had at construction time. Verifies the key
// matches the routing hash recorded at construction before accepting
// it, and invalidates any memoised NodeKey so it gets rebuilt with the
// key attached.
func (s *Ssk) AttachPublicKey(pub *dsa.PublicKey) error {
	if !bytes.Equal(sha256Digest(publicKeyMPIBytes(pub)), s.Routing) {
		return herrors.VerifyFailed(herrors.KeyTypeSSK, "public key does not match routing", nil)
	}
	s.PubKey = pub
	s.nodeKey = nil
	return nil
}

// docNameEditionRe matches a doc_name carrying a trailing (possibly
// negative) integer edition suffix.
var docNameEditionRe = regexp.MustCompile(`^(.*)-(-?\d+)$`)

// ToUsk splits the trailing numeric suffix of doc_name into the
// edition, the prefix becoming the USK doc_name; the remaining
// meta-strings are re-attached.
func (s *Ssk) ToUsk() (*Usk, error) {
	m := docNameEditionRe.FindStringSubmatch(s.DocName)
	if m == nil {
		return nil, herrors.MalformedURI("SSK doc_name does not end in -<edition>", nil)
	}
	edition, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return nil, herrors.MalformedURI("SSK doc_name edition suffix is not a valid int64", err)
	}
	return &Usk{
		Routing:    append([]byte(nil), s.Routing...),
		Decryption: append([]byte(nil), s.Decryption...),
		CryptoAlgo: s.CryptoAlgo,
		PubKey:     s.PubKey,
		DocName:    m[1],
		Edition:    edition,
		ExtraMeta:  append([]string(nil), s.ExtraMeta...),
	}, nil
}

// InsertableSsk is an Ssk that also holds the subspace's private key,
// allowing inserts.
type InsertableSsk struct {
	Ssk
	PrivateKey *dsa.PrivateKey
}

// Sign produces a DSA signature (r, s) over digest using the
// subspace's private key.
func (i *InsertableSsk) Sign(digest []byte) (r, s *big.Int, err error) {
	return signDSA(i.PrivateKey, digest)
}

// --- Usk -----------------------------------------------------------------

// Usk is an updatable SSK: doc_name plus an integer edition.
type Usk struct {
	Routing    []byte
	Decryption []byte
	CryptoAlgo primitives.CryptoAlgorithm
	PubKey     *dsa.PublicKey
	DocName    string
	Edition    int64
	ExtraMeta  []string

	nodeKey *NodeSsk
}

func (*Usk) Kind() herrors.KeyType { return herrors.KeyTypeUSK }

// ToSsk builds the SSK doc_name as doc_name + "-" + abs(edition),
// mapping MinInt64 to MaxInt64 to dodge the two's-complement overflow
// that negating MinInt64 would otherwise produce.
func (u *Usk) ToSsk() (*Ssk, error) {
	abs := u.Edition
	if abs == math.MinInt64 {
		abs = math.MaxInt64
	} else if abs < 0 {
		abs = -abs
	}
	docName := fmt.Sprintf("%s-%d", u.DocName, abs)
	return NewSsk(docName, u.Routing, u.Decryption, u.CryptoAlgo, u.PubKey, u.ExtraMeta)
}

func (u *Usk) NodeKey(clone bool) (NodeSsk, error) {
	if u.nodeKey == nil {
		ssk, err := u.ToSsk()
		if err != nil {
			return NodeSsk{}, err
		}
		nk, err := ssk.NodeKey(false)
		if err != nil {
			return NodeSsk{}, err
		}
		u.nodeKey = &nk
	}
	if clone {
		cp := *u.nodeKey
		return cp, nil
	}
	return *u.nodeKey, nil
}

// GenerateInsertableSsk generates a fresh DSA keypair and a random
// decryption key for a brand-new (non-keyword) subspace insert.
func GenerateInsertableSsk(docName string, extraMeta []string, algo primitives.CryptoAlgorithm) (*InsertableSsk, error) {
	priv, err := generateDSAKeypair()
	if err != nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, err)
	}
	decryption, err := primitives.RandomBytes(RoutingKeyLength)
	if err != nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeSSK, herrors.ReasonInternalCrypto, err)
	}
	routing := sha256Digest(publicKeyMPIBytes(&priv.PublicKey))

	ssk, err := NewSsk(docName, routing, decryption, algo, &priv.PublicKey, extraMeta)
	if err != nil {
		return nil, err
	}
	return &InsertableSsk{Ssk: *ssk, PrivateKey: priv}, nil
}

// --- Ksk -----------------------------------------------------------------

// Ksk is an insertable SSK whose decryption key derives from a
// human-chosen keyword. Creation is deliberately NOT deterministic
// end-to-end: CreateKsk generates a fresh DSA keypair every call, so
// routing (SHA-256 of that public key) differs call to call even though
// decryption (SHA-256 of the keyword alone) does not. Callers that need
// a stable URI for a keyword must cache the generated pair.
type Ksk struct {
	InsertableSsk
	Keyword string
}

func (*Ksk) Kind() herrors.KeyType { return herrors.KeyTypeKSK }

// CreateKsk generates a fresh DSA keypair and derives the KSK fields
// from keyword: decryption = SHA-256(keyword), routing = SHA-256 of the
// public key bytes.
func CreateKsk(keyword string) (*Ksk, error) {
	priv, err := generateDSAKeypair()
	if err != nil {
		return nil, herrors.CannotEncode(herrors.KeyTypeKSK, herrors.ReasonInternalCrypto, err)
	}
	decryption := sha256Digest([]byte(keyword))
	routing := sha256Digest(publicKeyMPIBytes(&priv.PublicKey))

	ssk, err := NewSsk(keyword, routing, decryption, primitives.AESCTR256SHA256, &priv.PublicKey, nil)
	if err != nil {
		return nil, err
	}

	return &Ksk{
		InsertableSsk: InsertableSsk{Ssk: *ssk, PrivateKey: priv},
		Keyword:       keyword,
	}, nil
}
