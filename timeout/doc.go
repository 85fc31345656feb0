// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines the timeout budget of an HTTP exchange. A
// Budget has a connect phase, which bounds establishing the connection,
// and a read phase, which bounds the exchange as a whole. Constructors
// are provided for a single scalar timeout covering both phases and
// for separate phase values.
package timeout
