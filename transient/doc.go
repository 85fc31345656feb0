// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from HTTP exchanges as transient
// or non-transient. This is handy for callers deciding whether to repeat
// a failed exchange, and for other purposes such as labelling error
// metrics.
//
// Package transient depends only on the standard library, so it
// brings no significant dependencies when imported on its own.
package transient
