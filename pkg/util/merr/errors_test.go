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

package merr

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestWrapChainKeepsIdentity() {
	err := WrapErrTableNotFound(100)
	err = errors.Wrap(err, "building snapshot")

	s.ErrorIs(err, ErrTableNotFound)
	s.NotErrorIs(err, ErrTabletOrphaned)

	sameCode := newTesseraError("another message", ErrTableNotFound.errCode, false)
	s.True(sameCode.Is(ErrTableNotFound))
}

func (s *ErrSuite) TestIsRetryable() {
	s.True(IsRetryable(WrapErrTabletOrphaned(1, 9)))
	s.True(IsRetryable(errors.Wrap(ErrCatalogUnhealthy, "dial timeout")))
	s.False(IsRetryable(WrapErrTableNotFound(100)))
	s.False(IsRetryable(errors.New("plain error")))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
