package h264

// EmulationPreventionInsert escapes an RBSP so that no start code prefix can appear in it.
//
//	0x00 0x00 0x00 -> 0x00 0x00 0x03 0x00
//	0x00 0x00 0x01 -> 0x00 0x00 0x03 0x01
//	0x00 0x00 0x02 -> 0x00 0x00 0x03 0x02
//	0x00 0x00 0x03 -> 0x00 0x00 0x03 0x03
//
// A trailing 0x00 byte is followed by 0x03 as well.
func EmulationPreventionInsert(rbsp []byte) []byte {
	ret := make([]byte, 0, len(rbsp)+len(rbsp)/2)
	zeros := 0

	for _, b := range rbsp {
		if zeros >= 2 && b <= escape {
			ret = append(ret, escape)
			zeros = 0
		}
		ret = append(ret, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}

	if len(rbsp) > 0 && rbsp[len(rbsp)-1] == 0 {
		ret = append(ret, escape)
	}
	return ret
}

// EmulationPreventionRemove removes emulation prevention bytes from a NALU.
func EmulationPreventionRemove(nalu []byte) []byte {
	l := len(nalu)
	n := l

	for i := 2; i < l; i++ {
		if nalu[i-2] == 0 && nalu[i-1] == 0 && nalu[i] == escape {
			n--
		}
	}

	ret := make([]byte, n)
	pos := 0
	start := 0

	for i := 2; i < l; i++ {
		if nalu[i-2] == 0 && nalu[i-1] == 0 && nalu[i] == escape {
			pos += copy(ret[pos:], nalu[start:i])
			start = i + 1
		}
	}

	copy(ret[pos:], nalu[start:])

	return ret
}
