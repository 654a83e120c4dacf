//go:build !unix

package cmm

import "errors"

func mapFile(string) (*mapping, error) {
	return nil, errors.ErrUnsupported
}
