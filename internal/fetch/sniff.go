package fetch

import "bytes"

const sniffLen = 8

const (
	ContainerMP4  = "mp4"
	ContainerFLV  = "flv"
	ContainerM3U8 = "m3u8"
	ContainerDASH = "dash"
)

// Sniff guesses the container from the first bytes of a file. It returns
// "" when nothing matches.
func Sniff(head []byte) string {
	switch {
	case len(head) >= 8 && bytes.Equal(head[4:8], []byte("ftyp")):
		return ContainerMP4
	case bytes.HasPrefix(head, []byte("FLV")):
		return ContainerFLV
	case bytes.HasPrefix(head, []byte("#EXTM")), bytes.HasPrefix(head, []byte("#HTT")):
		return ContainerM3U8
	case bytes.HasPrefix(head, []byte("DDSM")):
		return ContainerDASH
	}
	return ""
}
