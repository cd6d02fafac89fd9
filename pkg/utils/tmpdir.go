package utils

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
)

type workDirKey struct{}

// workDir is created lazily. The base dir is shared by all users, the
// returned dir is private to the current one.
type workDir struct {
	base string
	dir  string
	err  error
	once sync.Once
}

var defaultWorkDir = &workDir{base: defaultWorkDirBase()}

func defaultWorkDirBase() string {
	if dir := os.Getenv("ADEPLOY_BASE_TMP_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "adeploy-workdir")
}

func WithTmpBaseDir(ctx context.Context, base string) context.Context {
	return context.WithValue(ctx, workDirKey{}, &workDir{base: base})
}

func workDirFromContext(ctx context.Context) *workDir {
	if w, ok := ctx.Value(workDirKey{}).(*workDir); ok {
		return w
	}
	return defaultWorkDir
}

// GetTmpBaseDir returns the private work dir of the current user and creates
// it on first use.
func GetTmpBaseDir(ctx context.Context) (string, error) {
	w := workDirFromContext(ctx)
	w.once.Do(func() {
		w.dir, w.err = createWorkDir(w.base)
	})
	return w.dir, w.err
}

// WriteTmpFile writes content into a new file that only the current user can
// read. The returned function removes the file again.
func WriteTmpFile(ctx context.Context, pattern string, content []byte) (string, func(), error) {
	dir, err := GetTmpBaseDir(ctx)
	if err != nil {
		return "", nil, err
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		_ = os.Remove(f.Name())
	}
	_, err = f.Write(content)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}
	return f.Name(), cleanup, nil
}

func currentUserId() (string, error) {
	if runtime.GOOS != "windows" {
		return strconv.Itoa(os.Getuid()), nil
	}
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.Uid, nil
}

func createWorkDir(base string) (string, error) {
	err := ensureDir(base, 0o777)
	if err != nil {
		return "", err
	}
	uid, err := currentUserId()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, uid)
	err = ensureDir(dir, 0o700)
	if err != nil {
		return "", err
	}
	return dir, nil
}

// ensureDir creates dir or fixes its permissions if it already exists.
func ensureDir(dir string, perm os.FileMode) error {
	err := os.Mkdir(dir, perm)
	if err != nil && !os.IsExist(err) {
		return err
	}
	st, err := os.Lstat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	if st.Mode().Perm() != perm {
		return os.Chmod(dir, perm)
	}
	return nil
}
