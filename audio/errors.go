// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidBlockSize = errors.New("block size must be multiple of channels")
)
