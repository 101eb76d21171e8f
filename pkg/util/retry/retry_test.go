// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	n := 0
	err := Do(context.Background(), func() error {
		n++
		if n < 3 {
			return errors.New("not yet")
		}
		return nil
	}, Attempts(5), Sleep(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDoExhaustsAttempts(t *testing.T) {
	n := 0
	mockErr := errors.New("always fails")
	err := Do(context.Background(), func() error {
		n++
		return mockErr
	}, Attempts(3), Sleep(time.Millisecond))
	assert.ErrorIs(t, err, mockErr)
	assert.Equal(t, 3, n)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	n := 0
	err := Do(context.Background(), func() error {
		n++
		return errors.New("fatal")
	}, Attempts(5), Sleep(time.Millisecond), RetryErr(func(error) bool { return false }))
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, func() error { return errors.New("never runs") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoReturnsBeforeDeadlinePassesMidSleep(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	mockErr := errors.New("transient")
	err := Do(ctx, func() error { return mockErr }, Attempts(100), Sleep(50*time.Millisecond))
	assert.ErrorIs(t, err, mockErr)
}
