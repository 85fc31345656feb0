// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogama/reqx/engine"
	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "RequestException", KindRequest.String())
		assert.Equal(t, "ConnectTimeout", KindConnectTimeout.String())
		assert.Equal(t, "NotImplemented", KindNotImplemented.String())
		assert.Equal(t, "Kind(99)", Kind(99).String())
	})
	t.Run("Is", func(t *testing.T) {
		testCases := []struct {
			kind     Kind
			ancestor Kind
			expected bool
		}{
			{KindHTTP, KindRequest, true},
			{KindRequest, KindRequest, true},
			{KindRequest, KindConnection, false},
			{KindSSL, KindConnection, true},
			{KindProxy, KindConnection, true},
			{KindSSL, KindTimeout, false},
			{KindConnectTimeout, KindConnection, true},
			{KindConnectTimeout, KindTimeout, true},
			{KindReadTimeout, KindTimeout, true},
			{KindReadTimeout, KindConnection, false},
			{KindTimeout, KindReadTimeout, false},
			{KindTooManyRedirects, KindConnection, false},
			{KindMissingSchema, KindInvalidURL, false},
		}
		for _, testCase := range testCases {
			t.Run(fmt.Sprintf("%s.Is(%s)", testCase.kind, testCase.ancestor), func(t *testing.T) {
				assert.Equal(t, testCase.expected, testCase.kind.Is(testCase.ancestor))
			})
		}
	})
}

func TestError(t *testing.T) {
	t.Run("sentinels", func(t *testing.T) {
		err := error(&Error{Kind: KindConnectTimeout, Code: engine.OperationTimedout, Message: "timed out"})
		assert.ErrorIs(t, err, ErrConnectTimeout)
		assert.ErrorIs(t, err, ErrConnection)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.ErrorIs(t, err, ErrRequest)
		assert.NotErrorIs(t, err, ErrReadTimeout)
		assert.NotErrorIs(t, err, ErrSSL)
	})
	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("context: %w", &Error{Kind: KindSSL})
		assert.ErrorIs(t, err, ErrConnection)
		var re *Error
		assert.True(t, errors.As(err, &re))
	})
	t.Run("Error", func(t *testing.T) {
		assert.Equal(t, "reqx: ConnectionError: (7) Failed to connect",
			(&Error{Kind: KindConnection, Code: engine.CouldntConnect, Message: "Failed to connect"}).Error())
		assert.Equal(t, "reqx: MissingSchema: no scheme",
			(&Error{Kind: KindMissingSchema, Message: "no scheme"}).Error())
		assert.Equal(t, "reqx: ReadTimeout", ErrReadTimeout.Error())
	})
	t.Run("Unwrap", func(t *testing.T) {
		cause := &engine.Error{Code: engine.RecvError}
		err := &Error{Kind: KindRequest, Code: engine.RecvError, Err: cause}
		var ee *engine.Error
		assert.True(t, errors.As(err, &ee))
		assert.Same(t, cause, ee)
	})
	t.Run("Timeout", func(t *testing.T) {
		assert.True(t, (&Error{Kind: KindReadTimeout}).Timeout())
		assert.True(t, (&Error{Kind: KindConnectTimeout}).Timeout())
		assert.False(t, (&Error{Kind: KindConnection}).Timeout())
	})
	t.Run("session closed", func(t *testing.T) {
		err := &Error{Kind: KindRequest, Err: ErrSessionClosed}
		assert.ErrorIs(t, err, ErrSessionClosed)
		assert.ErrorIs(t, err, ErrRequest)
		assert.NotErrorIs(t, err, ErrConnection)
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConnectTimeout, kindOf(engine.OperationTimedout, false))
	assert.Equal(t, KindReadTimeout, kindOf(engine.OperationTimedout, true))
	assert.Equal(t, KindInvalidURL, kindOf(engine.URLMalformat, true))
	assert.Equal(t, KindSSL, kindOf(engine.PeerFailedVerification, false))
	assert.Equal(t, KindRequest, kindOf(engine.SendFailRewind, true))
	assert.Equal(t, KindRequest, kindOf(engine.Code(9999), false))
}
