package main

import (
	"fmt"
	"io"
)

// hexdump prints buf as offset, hex bytes and ASCII, 16 bytes per row
func hexdump(w io.Writer, buf []byte, base int64) {
	fmt.Fprintln(w, "Offset    00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F  ASCII")
	fmt.Fprintln(w, "--------  -----------------------------------------------  ----------------")

	for i := 0; i < len(buf); i += 16 {
		fmt.Fprintf(w, "%08X  ", base+int64(i))
		for j := range 16 {
			if i+j < len(buf) {
				fmt.Fprintf(w, "%02X ", buf[i+j])
			} else {
				fmt.Fprint(w, "   ")
			}
		}
		fmt.Fprint(w, " ")
		for j := 0; j < 16 && i+j < len(buf); j++ {
			b := buf[i+j]
			if b >= 32 && b <= 126 {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w)
	}
}
