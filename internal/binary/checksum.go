package binary

// Checksum accumulates the FITS 32-bit ones' complement sum used by the
// DATASUM and CHECKSUM keywords. Bytes are consumed as big-endian 32-bit
// words; a trailing partial word is completed with zero bytes, which is
// what the block padding of a data unit contributes.
type Checksum struct {
	sum     uint64
	partial [4]byte
	n       int
}

// Write adds p to the running sum. It never fails.
func (c *Checksum) Write(p []byte) (int, error) {
	total := len(p)

	for c.n > 0 && len(p) > 0 {
		c.partial[c.n] = p[0]
		c.n++
		p = p[1:]
		if c.n == 4 {
			c.add(c.partial[:])
			c.n = 0
		}
	}

	for len(p) >= 4 {
		c.add(p[:4])
		p = p[4:]
	}

	c.n = copy(c.partial[:], p)
	return total, nil
}

func (c *Checksum) add(w []byte) {
	c.sum += uint64(w[0])<<24 | uint64(w[1])<<16 | uint64(w[2])<<8 | uint64(w[3])
	// Fold early so the accumulator can never overflow.
	if c.sum > 1<<62 {
		c.sum = c.fold()
	}
}

// Sum32 returns the ones' complement sum of everything written so far.
func (c *Checksum) Sum32() uint32 {
	saved := c.sum
	if c.n > 0 {
		var w [4]byte
		copy(w[:], c.partial[:c.n])
		c.add(w[:])
	}
	s := uint32(c.fold())
	c.sum = saved
	return s
}

func (c *Checksum) fold() uint64 {
	s := c.sum
	for s>>32 != 0 {
		s = (s & 0xffffffff) + (s >> 32)
	}
	return s
}

// Sum32 computes the ones' complement sum of data in one call.
func Sum32(data []byte) uint32 {
	var c Checksum
	c.Write(data)
	return c.Sum32()
}
