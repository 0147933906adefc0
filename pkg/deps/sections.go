package deps

import (
	"bytes"
	"strings"
)

// ShowFiles is a shell fragment that prints each named file preceded by a
// "==> name <==" header, the format SplitFiles reads back. Missing files
// are reported on stderr and otherwise ignored.
func ShowFiles(names ...string) string {
	return "tail -v -n +1 " + strings.Join(names, " ")
}

// SplitFiles splits output produced by ShowFiles into per-file contents
// keyed by base file name. Output without any header is returned under the
// empty key.
func SplitFiles(out []byte) map[string][]byte {
	files := make(map[string][]byte)
	name := ""
	var cur bytes.Buffer
	flush := func() {
		if name != "" || cur.Len() > 0 {
			files[name] = append(files[name], cur.Bytes()...)
		}
		cur.Reset()
	}

	for _, line := range bytes.SplitAfter(out, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("==> ")) && bytes.HasSuffix(trimmed, []byte(" <==")) {
			flush()
			header := string(trimmed[4 : len(trimmed)-4])
			if i := strings.LastIndexByte(header, '/'); i >= 0 {
				header = header[i+1:]
			}
			name = header
			continue
		}
		cur.Write(line)
	}
	flush()
	return files
}
