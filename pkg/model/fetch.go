package model

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/teslashibe/go-agecam/internal/httpc"
)

// Fetch reads the model bytes from src.
// http and https URLs are downloaded; file:// URLs and plain paths are read
// from disk. No checksum or version validation is performed. Downloads are
// bounded only by ctx.
func Fetch(ctx context.Context, src string, maxBytes int64) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		data, err = httpc.Download(ctx, httpc.TransferClient, src, maxBytes)
	case strings.HasPrefix(src, "file://"):
		u, perr := url.Parse(src)
		if perr != nil {
			return nil, perr
		}
		data, err = readFile(u.Path, maxBytes)
	default:
		data, err = readFile(src, maxBytes)
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyModel
	}
	return data, nil
}

func readFile(path string, maxBytes int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", httpc.ErrTooLarge, path, info.Size())
	}
	return os.ReadFile(path)
}
