package orchard

import (
	"encoding/binary"

	blake2b "github.com/minio/blake2b-simd"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/LeakIX/zcash-web-wallet/pkg/tx"
)

const (
	// notePlaintextSize is version(1) + d(11) + value(8) + rseed(32) +
	// memo(512).
	notePlaintextSize = 564
	// MemoSize is the fixed on-chain memo field length.
	MemoSize = 512

	kdfPersonalization = "Zcash_OrchardKDF"
)

// Note is a decrypted Orchard note plaintext together with the action
// context needed downstream (rho feeds nullifier derivation).
type Note struct {
	Diversifier [11]byte
	Value       uint64
	Rho         [32]byte
	Rseed       [32]byte
	Memo        [MemoSize]byte
}

// PreparedIncomingViewingKey is an incoming viewing key bound to a
// Cryptosystem, ready for repeated trial decryption. It is read-only
// once built and safe to share across the actions of a transaction.
type PreparedIncomingViewingKey struct {
	ivk *IncomingViewingKey
	cs  Cryptosystem
}

// PrepareIncomingViewingKey binds an incoming viewing key to the
// cryptosystem used for key agreement.
func PrepareIncomingViewingKey(cs Cryptosystem, ivk *IncomingViewingKey) *PreparedIncomingViewingKey {
	return &PreparedIncomingViewingKey{ivk: ivk, cs: cs}
}

// Key returns the underlying incoming viewing key.
func (p *PreparedIncomingViewingKey) Key() *IncomingViewingKey {
	return p.ivk
}

// TryDecrypt attempts trial decryption of one action. A false result
// means the note is not addressed to this key (or the ciphertext does
// not authenticate); that is the expected outcome for other people's
// notes, not an error.
func (p *PreparedIncomingViewingKey) TryDecrypt(action *tx.OrchardAction) (*Note, bool) {
	secret, ok := p.cs.SharedSecret(p.ivk, action.EphemeralKey)
	if !ok {
		return nil, false
	}

	key := NoteEncryptionKey(secret, action.EphemeralKey)
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, false
	}

	var nonce [chacha20poly1305.NonceSize]byte
	plaintext, err := aead.Open(nil, nonce[:], action.EncCiphertext[:], nil)
	if err != nil {
		return nil, false
	}
	if len(plaintext) != notePlaintextSize || plaintext[0] != 0x02 {
		return nil, false
	}

	note := &Note{Rho: action.Nullifier}
	copy(note.Diversifier[:], plaintext[1:12])
	note.Value = binary.LittleEndian.Uint64(plaintext[12:20])
	copy(note.Rseed[:], plaintext[20:52])
	copy(note.Memo[:], plaintext[52:])
	return note, true
}

// NoteEncryptionKey derives the symmetric note key:
// BLAKE2b-256("Zcash_OrchardKDF", sharedSecret || ephemeralKey).
func NoteEncryptionKey(secret, ephemeralKey [32]byte) [32]byte {
	h, err := blake2b.New(&blake2b.Config{
		Size:   32,
		Person: []byte(kdfPersonalization),
	})
	if err != nil {
		panic("orchard: bad blake2b personalization: " + err.Error())
	}
	h.Write(secret[:])
	h.Write(ephemeralKey[:])

	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

// TrimMemo strips the maximal suffix of zero bytes from a memo field.
// The result may still be arbitrary bytes; callers decide whether it is
// presentable text.
func TrimMemo(memo [MemoSize]byte) []byte {
	end := len(memo)
	for end > 0 && memo[end-1] == 0 {
		end--
	}
	return memo[:end]
}
