// Copyright 2021 The reqx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	b := Fixed(3 * time.Second)
	assert.Equal(t, 3*time.Second, b.Connect)
	assert.Equal(t, 3*time.Second, b.Read)
	assert.False(t, b.IsInfinite())
	assert.Equal(t, "3s", b.String())
}

func TestPhased(t *testing.T) {
	b := Phased(time.Second, 10*time.Second)
	assert.Equal(t, time.Second, b.Connect)
	assert.Equal(t, 10*time.Second, b.Read)
	assert.Equal(t, "(connect=1s, read=10s)", b.String())
}

func TestInfinite(t *testing.T) {
	assert.True(t, Infinite.IsInfinite())
	assert.True(t, Budget{}.IsInfinite())
	assert.False(t, Phased(0, time.Second).IsInfinite())
}

func TestBudget_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		budget  Budget
		wantErr bool
	}{
		{"zero", Budget{}, false},
		{"fixed", Fixed(time.Second), false},
		{"negative connect", Phased(-1, time.Second), true},
		{"negative read", Phased(time.Second, -1), true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := testCase.budget.Validate()
			if testCase.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
