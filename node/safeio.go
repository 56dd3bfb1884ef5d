package node

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"btcspv.dev/bridge/btcspv"
)

func readFileByPath(path string) ([]byte, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return readFileFromDir(dir, name)
}

func readFileFromDir(dir, name string) ([]byte, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid file name: %q", name)
	}
	return fs.ReadFile(os.DirFS(dir), name)
}

// LoadHeaderFile reads hex-encoded headers, one per line, and returns them
// packed back to back. Blank lines and lines starting with '#' are skipped.
func LoadHeaderFile(path string) ([]byte, error) {
	raw, err := readFileByPath(path)
	if err != nil {
		return nil, err
	}
	var out []byte
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		b, err := btcspv.DeserializeHex(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if _, err := btcspv.ParseRawHeader(b); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, b...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// LoadProofFile reads a JSON-encoded SPVProof.
func LoadProofFile(path string) (btcspv.SPVProof, error) {
	var p btcspv.SPVProof
	raw, err := readFileByPath(path)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode proof %s: %w", path, err)
	}
	return p, nil
}
