package utils

import (
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
)

func stat(p string) os.FileInfo {
	st, err := os.Stat(p)
	if err != nil {
		return nil
	}
	return st
}

func IsFile(p string) bool {
	st := stat(p)
	return st != nil && st.Mode().IsRegular()
}

func IsDirectory(p string) bool {
	st := stat(p)
	return st != nil && st.IsDir()
}

// SecureJoin joins elems below root. Namespaces, names and releases end up as
// directory names, so none of them may escape root.
func SecureJoin(root string, elems ...string) (string, error) {
	return securejoin.SecureJoin(root, filepath.Join(elems...))
}
