// Package common provides common utilities.
package common

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileExist returns whether the file exists
func FileExist(filePath string) bool {
	_, err := os.Stat(filePath)
	if err != nil && os.IsNotExist(err) {
		return false
	}
	return true
}

// CurrentDir current directory
func CurrentDir() (string, error) {
	return filepath.Abs(".")
}

// AbsolutePath returns datadir + filename, or filename if it is absolute.
func AbsolutePath(datadir, filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(datadir, filename)
}

// GetUint64FromStr parse decimal or 0x prefixed hex string to uint64
func GetUint64FromStr(str string) (uint64, error) {
	str = strings.TrimSpace(str)
	base := 10
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		str = str[2:]
		base = 16
	}
	res, err := strconv.ParseUint(str, base, 64)
	if err != nil {
		return 0, errors.New("invalid unsigned 64 bit integer: " + str)
	}
	return res, nil
}

// Now returns timestamp of the point of calling.
func Now() int64 {
	return time.Now().Unix()
}

// MaxInt64 returns the larger one
func MaxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
