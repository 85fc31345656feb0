// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package reqx

import (
	"syscall"
	"testing"
	"time"

	"github.com/gogama/reqx/engine"
	"github.com/gogama/reqx/transient"
	"github.com/stretchr/testify/assert"
)

func TestExchange(t *testing.T) {
	t.Run("StatusCode", func(t *testing.T) {
		e := &Exchange{}
		assert.Equal(t, 0, e.StatusCode())
		e.Response = &Response{StatusCode: 204}
		assert.Equal(t, 204, e.StatusCode())
	})
	t.Run("Duration", func(t *testing.T) {
		e := &Exchange{}
		assert.False(t, e.Started())
		assert.False(t, e.Ended())
		assert.Equal(t, time.Duration(0), e.Duration())
		e.Start = time.Now().Add(-time.Second)
		assert.True(t, e.Started())
		assert.GreaterOrEqual(t, e.Duration(), time.Second)
		e.End = e.Start.Add(3 * time.Second)
		assert.True(t, e.Ended())
		assert.Equal(t, 3*time.Second, e.Duration())
	})
	t.Run("Category", func(t *testing.T) {
		testCases := []struct {
			name string
			err  error
			cat  transient.Category
		}{
			{"nil", nil, transient.Not},
			{"read timeout", &Error{Kind: KindReadTimeout}, transient.Timeout},
			{"connect timeout", &Error{Kind: KindConnectTimeout}, transient.Timeout},
			{"refused", &Error{Kind: KindConnection, Err: &engine.Error{Code: engine.CouldntConnect, Err: syscall.ECONNREFUSED}}, transient.ConnRefused},
			{"http", &Error{Kind: KindHTTP}, transient.Not},
		}
		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				e := &Exchange{Err: testCase.err}
				assert.Equal(t, testCase.cat, e.Category())
				assert.Equal(t, testCase.cat == transient.Timeout, e.Timeout())
			})
		}
	})
	t.Run("Value", func(t *testing.T) {
		type key struct{}
		e := &Exchange{}
		assert.Nil(t, e.Value(key{}))
		e.SetValue(key{}, "foo")
		assert.Equal(t, "foo", e.Value(key{}))
		e.SetValue(key{}, "bar")
		assert.Equal(t, "bar", e.Value(key{}))
	})
}
