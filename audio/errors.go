// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")
	ErrEmptySource    = errors.New("source produced no samples")
	ErrNotRewindable  = errors.New("source cannot be rewound")
)
