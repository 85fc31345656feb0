// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"fmt"
	"time"
)

// A Budget holds the connect and read timeouts of an exchange. A zero
// phase value means the phase has no limit, so the zero Budget never
// times out.
type Budget struct {
	// Connect bounds name resolution, dialing and the TLS handshake.
	Connect time.Duration
	// Read bounds the exchange from its start until the response body
	// has been received.
	Read time.Duration
}

// Infinite is the budget which never times out.
var Infinite = Budget{}

// Fixed constructs a budget using d for both phases, which is what a
// single scalar timeout means.
func Fixed(d time.Duration) Budget {
	return Budget{Connect: d, Read: d}
}

// Phased constructs a budget with separate connect and read timeouts.
func Phased(connect, read time.Duration) Budget {
	return Budget{Connect: connect, Read: read}
}

// IsInfinite reports whether neither phase has a limit.
func (b Budget) IsInfinite() bool {
	return b.Connect <= 0 && b.Read <= 0
}

// Validate returns an error if either phase is negative.
func (b Budget) Validate() error {
	if b.Connect < 0 || b.Read < 0 {
		return fmt.Errorf("timeout: negative budget %s", b)
	}

	return nil
}

func (b Budget) String() string {
	if b.Connect == b.Read {
		return b.Connect.String()
	}

	return fmt.Sprintf("(connect=%s, read=%s)", b.Connect, b.Read)
}
