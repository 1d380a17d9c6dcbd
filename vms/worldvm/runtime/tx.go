// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"crypto/ed25519"
	"fmt"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"

	"github.com/luxfi/world/vms/worldvm/account"
)

// Message is the signed part of a transaction.
type Message struct {
	Instructions []account.Instruction `serialize:"true" json:"instructions"`
}

// Bytes returns the canonical encoding of the message.
func (m *Message) Bytes() ([]byte, error) {
	return Codec.Marshal(CodecVersion, m)
}

// Credential is an ed25519 signature over a message. The public key is the
// signing account's key.
type Credential struct {
	PublicKey ids.ID `serialize:"true" json:"publicKey"`
	Signature []byte `serialize:"true" json:"signature"`
}

type Tx struct {
	Message     Message      `serialize:"true" json:"message"`
	Credentials []Credential `serialize:"true" json:"credentials"`
}

// Sign returns msg signed by every key in keys.
func Sign(msg Message, keys ...ed25519.PrivateKey) (*Tx, error) {
	msgBytes, err := msg.Bytes()
	if err != nil {
		return nil, err
	}
	tx := &Tx{
		Message:     msg,
		Credentials: make([]Credential, len(keys)),
	}
	for i, key := range keys {
		tx.Credentials[i] = Credential{
			PublicKey: KeyID(key),
			Signature: ed25519.Sign(key, msgBytes),
		}
	}
	return tx, nil
}

// ID returns the hash of the signed transaction.
func (tx *Tx) ID() (ids.ID, error) {
	txBytes, err := Codec.Marshal(CodecVersion, tx)
	if err != nil {
		return ids.Empty, err
	}
	return ids.ID(hash.ComputeHash256Array(txBytes)), nil
}

// Signers verifies every credential and returns the signing keys.
func (tx *Tx) Signers() (set.Set[ids.ID], error) {
	msgBytes, err := tx.Message.Bytes()
	if err != nil {
		return nil, err
	}
	signers := set.NewSet[ids.ID](len(tx.Credentials))
	for i, cred := range tx.Credentials {
		if !ed25519.Verify(cred.PublicKey[:], msgBytes, cred.Signature) {
			return nil, fmt.Errorf("%w: credential %d for %s", ErrInvalidSignature, i, cred.PublicKey)
		}
		signers.Add(cred.PublicKey)
	}
	return signers, nil
}

// KeyID returns the account key controlled by key.
func KeyID(key ed25519.PrivateKey) ids.ID {
	var id ids.ID
	copy(id[:], key.Public().(ed25519.PublicKey))
	return id
}
