package fsutil

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cordum/pathpack/core/infra/logging"
)

// DeletePath removes a file or directory tree. A missing path is not an
// error. When mustSucceed is false a failure is logged and swallowed.
func DeletePath(path string, mustSucceed bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	err := os.RemoveAll(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if mustSucceed {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	logging.Warn("fsutil", "could not delete temporary path", "path", path, "err", err)
	return nil
}
