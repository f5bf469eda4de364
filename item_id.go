package hintdb

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// ItemIDSize is the fixed width of an item identifier in bytes.
const ItemIDSize = 32

// ItemID uniquely names an indexed item.
type ItemID [ItemIDSize]byte

// ItemIDFromBytes copies b into an ItemID, rejecting any other width.
func ItemIDFromBytes(b []byte) (ItemID, error) {
	var id ItemID
	if len(b) != ItemIDSize {
		return id, fmt.Errorf("item id must be %d bytes, got %d", ItemIDSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ItemIDFromHex parses a 64-character hex string into an ItemID.
func ItemIDFromHex(s string) (ItemID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ItemID{}, fmt.Errorf("invalid item id hex: %w", err)
	}
	return ItemIDFromBytes(b)
}

func (id ItemID) Bytes() []byte {
	return id[:]
}

func (id ItemID) String() string {
	return hex.EncodeToString(id[:])
}

// Compare orders item ids byte-lexicographically.
func (id ItemID) Compare(other ItemID) int {
	return bytes.Compare(id[:], other[:])
}
