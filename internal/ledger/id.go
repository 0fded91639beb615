// Package ledger provides codecs for the composite entity identifiers used
// across the explorer: the 64-bit sortable id that packs a ledger sequence,
// transaction application order, and operation application order, and the
// 96-bit triple key used for nested parent/child/sequence records.
package ledger

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/zeebo/errs"
)

// Kind classifies a decoded composite id.
type Kind int

const (
	KindLedger Kind = iota
	KindTransaction
	KindOperation
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLedger:
		return "ledger"
	case KindTransaction:
		return "transaction"
	default:
		return "operation"
	}
}

const (
	ledgerShift = 32
	txShift     = 12

	maxTxOrder = 1<<20 - 1
	maxOpOrder = 1<<12 - 1
)

// ErrInvalidID is returned for malformed textual id representations.
var ErrInvalidID = errs.Class("invalid entity id")

// EncodeOperationID packs a ledger sequence, transaction application order
// and operation application order into a single sortable 64-bit id.
// Arguments outside their field width indicate a programmer error and panic.
func EncodeOperationID(ledgerSeq uint32, txOrder, opOrder uint32) uint64 {
	if txOrder > maxTxOrder {
		panic(fmt.Sprintf("ledger: tx application order %d exceeds 20 bits", txOrder))
	}
	if opOrder > maxOpOrder {
		panic(fmt.Sprintf("ledger: operation application order %d exceeds 12 bits", opOrder))
	}
	return uint64(ledgerSeq)<<ledgerShift | uint64(txOrder)<<txShift | uint64(opOrder)
}

// EncodeTxID packs a ledger sequence and transaction application order.
// A zero operation order marks the id as a transaction id.
func EncodeTxID(ledgerSeq uint32, txOrder uint32) uint64 {
	return EncodeOperationID(ledgerSeq, txOrder, 0)
}

// EncodeLedgerID packs a bare ledger sequence.
func EncodeLedgerID(ledgerSeq uint32) uint64 {
	return uint64(ledgerSeq) << ledgerShift
}

// ParsedID is the decomposed form of a composite id.
type ParsedID struct {
	Kind      Kind
	LedgerSeq uint32
	TxOrder   uint32
	OpOrder   uint32
}

// TxID returns the id of the transaction enclosing a decoded operation,
// or the id itself when it already identifies a transaction or ledger.
func (p ParsedID) TxID() uint64 {
	return EncodeOperationID(p.LedgerSeq, p.TxOrder, 0)
}

// LedgerID returns the id of the enclosing ledger.
func (p ParsedID) LedgerID() uint64 {
	return EncodeLedgerID(p.LedgerSeq)
}

// DecodeID splits a composite id back into its fields and classifies it.
// Ids with a zero low word are ledger ids, ids with a zero operation order
// are transaction ids, everything else is an operation id.
func DecodeID(id uint64) ParsedID {
	p := ParsedID{
		LedgerSeq: uint32(id >> ledgerShift),
		TxOrder:   uint32(id>>txShift) & maxTxOrder,
		OpOrder:   uint32(id) & maxOpOrder,
	}
	switch {
	case uint32(id) == 0:
		p.Kind = KindLedger
	case p.OpOrder == 0:
		p.Kind = KindTransaction
	default:
		p.Kind = KindOperation
	}
	return p
}

// FormatID renders a composite id as a base-10 string. Ids exceed the safe
// integer range of some consumers, so they always travel as strings.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ParseID parses the base-10 textual form of a composite id.
func ParseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidID.New("%q is not a valid entity id", s)
	}
	return id, nil
}

// TripleKey is a 96-bit key packing three independent 32-bit integers,
// used for contract storage entries and balance history snapshots.
type TripleKey [12]byte

// PackTriple builds a TripleKey from its three components.
func PackTriple(a, b, c uint32) TripleKey {
	var k TripleKey
	binary.BigEndian.PutUint32(k[0:4], a)
	binary.BigEndian.PutUint32(k[4:8], b)
	binary.BigEndian.PutUint32(k[8:12], c)
	return k
}

// Unpack extracts the three components of the key.
func (k TripleKey) Unpack() (a, b, c uint32) {
	return binary.BigEndian.Uint32(k[0:4]),
		binary.BigEndian.Uint32(k[4:8]),
		binary.BigEndian.Uint32(k[8:12])
}

// String renders the key as base64 of its 12-byte binary form.
func (k TripleKey) String() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// ParseTripleKey decodes the base64 textual form of a TripleKey.
func ParseTripleKey(s string) (TripleKey, error) {
	var k TripleKey
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) != len(k) {
		return k, ErrInvalidID.New("%q is not a valid triple key", s)
	}
	copy(k[:], raw)
	return k, nil
}
