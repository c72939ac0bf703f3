package headertest

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	tmbytes "github.com/cometbft/cometbft/libs/bytes"

	"github.com/celestiaorg/celestia-light/header"
)

// Generator deterministically produces a valid header chain for tests,
// starting at height 1. Hash linkage holds for every adjacent pair, so the
// generated chain passes Header.Verify.
type Generator struct {
	headers []*header.Header
}

// NewGenerator generates a chain of the given total length.
func NewGenerator(total int) *Generator {
	g := &Generator{headers: make([]*header.Header, 0, total)}
	g.Extend(total)
	return g
}

// Extend appends the given amount of headers to the generated chain.
func (g *Generator) Extend(amount int) {
	base := time.Unix(1700000000, 0).UTC()
	for i := 0; i < amount; i++ {
		height := uint64(len(g.headers) + 1)
		var lastHash tmbytes.HexBytes
		if height > 1 {
			lastHash = g.headers[height-2].Hash
		}
		g.headers = append(g.headers, &header.Header{
			Height:   height,
			Time:     base.Add(time.Duration(height) * time.Second),
			Hash:     hashAt(height, lastHash),
			LastHash: lastHash,
			DataRoot: dataRootAt(height),
		})
	}
}

// Head returns the highest generated header.
func (g *Generator) Head() *header.Header {
	return g.headers[len(g.headers)-1]
}

// ByHeight returns the generated header at the given height.
func (g *Generator) ByHeight(height uint64) *header.Header {
	if height == 0 || height > uint64(len(g.headers)) {
		panic(fmt.Sprintf("headertest: height %d out of generated chain", height))
	}
	return g.headers[height-1]
}

// Range returns generated headers for the inclusive span [from:to].
func (g *Generator) Range(from, to uint64) []*header.Header {
	out := make([]*header.Header, 0, to-from+1)
	for h := from; h <= to; h++ {
		out = append(out, g.ByHeight(h))
	}
	return out
}

func hashAt(height uint64, lastHash tmbytes.HexBytes) tmbytes.HexBytes {
	buf := make([]byte, 8, 8+len(lastHash))
	binary.BigEndian.PutUint64(buf, height)
	sum := sha256.Sum256(append(buf, lastHash...))
	return sum[:]
}

func dataRootAt(height uint64) tmbytes.HexBytes {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, height)
	sum := sha256.Sum256(append([]byte("data"), buf...))
	return sum[:]
}
